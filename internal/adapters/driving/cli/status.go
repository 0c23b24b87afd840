package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blockwatch/internal/core/domain"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session state and recent sync runs",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "runs", 5, "Number of recent sync runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	cred, err := a.store.CredentialStore().GetCredential(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cmd.Println("Session: none (run 'blockwatch login')")
	case err != nil:
		return err
	default:
		cmd.Printf("Session: token expires %s", cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		if cred.NeedsRefresh(time.Now()) {
			cmd.Print(" (refresh due)")
		}
		cmd.Println()
		if cred.UserID != "" {
			cmd.Printf("Account id: %s\n", cred.UserID)
		}
	}

	count, err := a.store.BlocklistStore().CountBlocked(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Blocked accounts: %d\n", count)

	runs, err := a.store.SyncRunStore().ListRuns(ctx, statusLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No sync runs recorded yet.")
		return nil
	}

	cmd.Println("\nRecent sync runs:")
	for i := range runs {
		run := &runs[i]
		outcome := "ok"
		switch {
		case run.Error != "":
			outcome = "error: " + run.Error
		case run.Partial:
			outcome = "partial"
		}
		cmd.Printf("  %s  %4d usernames  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.UsernamesSynced,
			outcome)
	}
	return nil
}
