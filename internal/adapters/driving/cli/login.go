package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the X API",
	Long: `Run the interactive OAuth2 login flow.

Prints an authorization URL to open in a browser and waits for the
redirect on the configured callback address. The resulting tokens are
stored locally; later commands and the background sync refresh them
without further interaction.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	// The client secret can be supplied at the prompt instead of
	// sitting in the config file or environment.
	if os.Getenv("XAPI_CLIENT_SECRET") == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		if probe, err := setup(); err == nil {
			missingSecret := probe.cfg.XAPI.ClientID != "" && probe.cfg.XAPI.ClientSecret == ""
			probe.Close()
			if missingSecret {
				cmd.Print("Client secret: ")
				secret, err := term.ReadPassword(int(os.Stdin.Fd()))
				cmd.Println()
				if err != nil {
					return fmt.Errorf("reading client secret: %w", err)
				}
				os.Setenv("XAPI_CLIENT_SECRET", strings.TrimSpace(string(secret)))
			}
		}
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.Validate(false); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := a.session.Login(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Logged in. Token expires %s.\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	if !cred.HasRefreshToken() {
		cmd.Println("Warning: no refresh token was granted; add offline.access to the scopes.")
	}
	return nil
}
