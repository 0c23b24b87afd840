// Package cli implements the blockwatch command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/blockwatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/blockwatch/internal/adapters/driven/oauth"
	"github.com/custodia-labs/blockwatch/internal/adapters/driven/storage/sqlite"
	drivingoauth "github.com/custodia-labs/blockwatch/internal/adapters/driving/oauth"
	"github.com/custodia-labs/blockwatch/internal/core/services"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	flagVerbose    bool
	flagConfigPath string
	flagDataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "blockwatch",
	Short: "Discord bot that flags links to blocked X accounts",
	Long: `blockwatch keeps a local copy of the blocked-accounts list of one
X (Twitter) account and watches a Discord guild for tweet links. A link
whose author sits in the blocked set gets a reaction on the message.

The X session is held through OAuth2 with PKCE and refreshed
automatically; the blocked set survives restarts in a local SQLite
database.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file path (default ~/.blockwatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (default ~/.blockwatch/data)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a command needs after wiring.
type app struct {
	cfg     *configfile.Config
	store   *sqlite.Store
	session *services.SessionManager
	tracker *services.RateLimitTracker
}

// setup loads configuration and opens the store and session plumbing
// shared by all commands. Callers must Close the returned app.
func setup() (*app, error) {
	cfg, err := configfile.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	tokens := oauth.NewTokenClient(oauth.DefaultTokenURL, cfg.XAPI.ClientID, cfg.XAPI.ClientSecret)
	receiver := drivingoauth.NewCallbackReceiver()
	session := services.NewSessionManager(services.SessionConfig{
		AuthorizeURL: oauth.DefaultAuthorizeURL,
		ClientID:     cfg.XAPI.ClientID,
		RedirectURI:  cfg.XAPI.RedirectURI,
		Scopes:       cfg.ScopeList(),
	}, store.CredentialStore(), tokens, receiver)

	return &app{
		cfg:     cfg,
		store:   store,
		session: session,
		tracker: services.NewRateLimitTracker(store.RateLimitStore()),
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("closing store: %v", err)
	}
}
