// Package file loads blockwatch configuration from a TOML file with
// environment-variable overrides for secrets and deployment knobs.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

// Defaults applied when the file and environment say nothing.
const (
	DefaultRedirectURI  = "http://127.0.0.1:3000/callback"
	DefaultScopes       = "tweet.read users.read block.read offline.access"
	DefaultSyncInterval = 16 * time.Minute
)

// DiscordConfig holds the Discord gateway settings.
type DiscordConfig struct {
	Token string `toml:"token"`
}

// XAPIConfig holds the X API OAuth2 application settings.
type XAPIConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Scopes       string `toml:"scopes"`
}

// SyncConfig holds the blocklist sync settings.
type SyncConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// Config is the full blockwatch configuration.
type Config struct {
	Discord DiscordConfig `toml:"discord"`
	XAPI    XAPIConfig    `toml:"xapi"`
	Sync    SyncConfig    `toml:"sync"`
	DataDir string        `toml:"data_dir"`

	path string
}

// Load reads the config file at path, falling back to
// ~/.blockwatch/config.toml when path is empty. A missing file is not
// an error; env overrides still apply on top of the zero config.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".blockwatch", "config.toml")
	}

	cfg := &Config{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays environment variables onto the file values.
// The environment wins so deployments can keep secrets out of files.
func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("XAPI_CLIENT_ID"); v != "" {
		c.XAPI.ClientID = v
	}
	if v := os.Getenv("XAPI_CLIENT_SECRET"); v != "" {
		c.XAPI.ClientSecret = v
	}
	if v := os.Getenv("XAPI_REDIRECT_URI"); v != "" {
		c.XAPI.RedirectURI = v
	}
	if v := os.Getenv("XAPI_SCOPES"); v != "" {
		c.XAPI.Scopes = v
	}
	if v := os.Getenv("BLOCKWATCH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}

func (c *Config) applyDefaults() {
	if c.XAPI.RedirectURI == "" {
		c.XAPI.RedirectURI = DefaultRedirectURI
	}
	if c.XAPI.Scopes == "" {
		c.XAPI.Scopes = DefaultScopes
	}
	if c.Sync.IntervalMinutes <= 0 {
		c.Sync.IntervalMinutes = int(DefaultSyncInterval / time.Minute)
	}
}

// SyncInterval returns the configured interval as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalMinutes) * time.Minute
}

// ScopeList splits the space-separated scopes string.
func (c *Config) ScopeList() []string {
	return strings.Fields(c.XAPI.Scopes)
}

// Path returns the configuration file path this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Validate reports every missing required key in one error so a fresh
// install does not fail one key at a time.
func (c *Config) Validate(needDiscord bool) error {
	var missing []string
	if needDiscord && c.Discord.Token == "" {
		missing = append(missing, "discord.token")
	}
	if c.XAPI.ClientID == "" {
		missing = append(missing, "xapi.client_id")
	}
	if c.XAPI.ClientSecret == "" {
		missing = append(missing, "xapi.client_secret")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrConfigIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// Save writes the current configuration back to its file with
// restricted permissions.
func (c *Config) Save() error {
	if c.path == "" {
		return domain.ErrInvalidInput
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
