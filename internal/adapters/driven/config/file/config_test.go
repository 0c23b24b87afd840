package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "XAPI_CLIENT_ID", "XAPI_CLIENT_SECRET",
		"XAPI_REDIRECT_URI", "XAPI_SCOPES", "BLOCKWATCH_DATA_DIR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad(t *testing.T) {
	t.Run("parses a full config file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
data_dir = "/var/lib/blockwatch"

[discord]
token = "discord-token"

[xapi]
client_id = "client-id"
client_secret = "client-secret"
redirect_uri = "http://127.0.0.1:8099/cb"
scopes = "tweet.read block.read"

[sync]
interval_minutes = 20
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "discord-token", cfg.Discord.Token)
		assert.Equal(t, "client-id", cfg.XAPI.ClientID)
		assert.Equal(t, "client-secret", cfg.XAPI.ClientSecret)
		assert.Equal(t, "http://127.0.0.1:8099/cb", cfg.XAPI.RedirectURI)
		assert.Equal(t, []string{"tweet.read", "block.read"}, cfg.ScopeList())
		assert.Equal(t, 20*time.Minute, cfg.SyncInterval())
		assert.Equal(t, "/var/lib/blockwatch", cfg.DataDir)
	})

	t.Run("a missing file yields defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultRedirectURI, cfg.XAPI.RedirectURI)
		assert.Equal(t, DefaultScopes, cfg.XAPI.Scopes)
		assert.Equal(t, DefaultSyncInterval, cfg.SyncInterval())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
[discord]
token = "file-token"

[xapi]
client_id = "file-id"
`)
		t.Setenv("DISCORD_TOKEN", "env-token")
		t.Setenv("XAPI_CLIENT_ID", "env-id")
		t.Setenv("XAPI_CLIENT_SECRET", "env-secret")
		t.Setenv("BLOCKWATCH_DATA_DIR", "/tmp/bw")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Discord.Token)
		assert.Equal(t, "env-id", cfg.XAPI.ClientID)
		assert.Equal(t, "env-secret", cfg.XAPI.ClientSecret)
		assert.Equal(t, "/tmp/bw", cfg.DataDir)
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `discord = nope nope`)

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("reports every missing key at once", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate(true)
		require.ErrorIs(t, err, domain.ErrConfigIncomplete)
		assert.Contains(t, err.Error(), "discord.token")
		assert.Contains(t, err.Error(), "xapi.client_id")
		assert.Contains(t, err.Error(), "xapi.client_secret")
	})

	t.Run("discord token is optional for login-only use", func(t *testing.T) {
		cfg := &Config{XAPI: XAPIConfig{ClientID: "id", ClientSecret: "secret"}}
		assert.NoError(t, cfg.Validate(false))
		assert.ErrorIs(t, cfg.Validate(true), domain.ErrConfigIncomplete)
	})

	t.Run("complete config passes", func(t *testing.T) {
		cfg := &Config{
			Discord: DiscordConfig{Token: "token"},
			XAPI:    XAPIConfig{ClientID: "id", ClientSecret: "secret"},
		}
		assert.NoError(t, cfg.Validate(true))
	})
}

func TestConfigSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Discord.Token = "saved-token"
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved-token", reloaded.Discord.Token)
}
