package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blockwatch/internal/adapters/driven/vxapi"
	"github.com/custodia-labs/blockwatch/internal/adapters/driven/xapi"
	"github.com/custodia-labs/blockwatch/internal/adapters/driving/discord"
	"github.com/custodia-labs/blockwatch/internal/core/services"
	"github.com/custodia-labs/blockwatch/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot",
	Long: `Run the bot: sync the blocked-accounts list on a fixed interval and
watch Discord for tweet links.

The first sync pass runs immediately and must succeed before the
Discord connection is opened; with no stored credential this triggers
the interactive browser login.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.Validate(true); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := xapi.NewClient(a.session)
	engine := services.NewSyncEngine(
		a.session,
		a.tracker,
		provider,
		a.store.BlocklistStore(),
		a.store.SyncRunStore(),
		a.cfg.SyncInterval(),
	)

	// The startup pass doubles as the login gate: without a valid
	// session and a populated set there is nothing the listener could
	// answer with, so a failed first pass is fatal.
	if err := engine.SyncOnce(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}

	listener, err := discord.NewListener(a.cfg.Discord.Token, vxapi.NewClient(), engine)
	if err != nil {
		return err
	}
	if err := listener.Start(); err != nil {
		return err
	}
	defer func() {
		if err := listener.Stop(); err != nil {
			logger.Warn("closing discord session: %v", err)
		}
	}()

	go engine.Run(ctx)

	cmd.Println("blockwatch is running. Press Ctrl+C to exit.")
	<-ctx.Done()
	cmd.Println("shutting down")
	return nil
}
