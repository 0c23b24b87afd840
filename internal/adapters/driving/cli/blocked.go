package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var blockedCmd = &cobra.Command{
	Use:   "blocked [username]",
	Short: "Query the local blocked-accounts set",
	Long: `Query the locally stored blocked-accounts set.

With a username, reports whether that account is blocked. Without one,
prints the size of the set. The lookup is case-insensitive and touches
only local state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBlocked,
}

func init() {
	rootCmd.AddCommand(blockedCmd)
}

func runBlocked(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	blocklist := a.store.BlocklistStore()

	if len(args) == 0 {
		count, err := blocklist.CountBlocked(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("%d blocked accounts stored\n", count)
		return nil
	}

	blocked, err := blocklist.IsBlocked(ctx, args[0])
	if err != nil {
		return err
	}
	if blocked {
		cmd.Printf("@%s is blocked\n", args[0])
	} else {
		cmd.Printf("@%s is not blocked\n", args[0])
	}
	return nil
}
