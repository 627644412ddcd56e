package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xsysr3ll/tvtimed/internal/browser"
	"github.com/0xsysr3ll/tvtimed/internal/config"
	"github.com/0xsysr3ll/tvtimed/pkg/tvtime"
)

var loginTimeout time.Duration

var loginCmd = &cobra.Command{
	Use:   "login [plex_user]",
	Short: "Verify TV Time credentials",
	Long: `Verify that the configured TV Time accounts can sign in.

This runs the full login flow for each configured account (or just the
one named on the command line): a headless browser fetches the transient
token from the TV Time web client, which is then exchanged together with
the account credentials for a bearer token pair.

Useful for checking a new config before running 'tvtimed serve', since
the same flow is what the bridge runs at startup and on token expiry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 2*time.Minute, "Per-account login timeout")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	accounts := cfg.Accounts
	if len(args) == 1 {
		accounts = nil
		for _, account := range cfg.Accounts {
			if account.PlexUser == args[0] {
				accounts = append(accounts, account)
			}
		}
		if len(accounts) == 0 {
			return fmt.Errorf("no account configured for plex user %q", args[0])
		}
	}

	launcher := browser.NewLauncher(cfg.Browser.ExecPath)

	failures := 0
	for _, account := range accounts {
		fmt.Printf("Logging in %s (%s)...\n", account.PlexUser, account.Username)

		client, err := tvtime.NewClient(tvtime.Config{
			Username: account.Username,
			Password: account.Password,
			Browser:  launcher,
		})
		if err != nil {
			return fmt.Errorf("failed to create client for %q: %w", account.PlexUser, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		err = client.Login(ctx)
		cancel()

		if err != nil {
			failures++
			fmt.Printf("✗ %s: %v\n", account.PlexUser, err)
			continue
		}
		fmt.Printf("✓ %s: connected to TV Time\n", account.PlexUser)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d account logins failed", failures, len(accounts))
	}
	return nil
}
