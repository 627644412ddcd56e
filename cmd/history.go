package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsysr3ll/tvtimed/internal/config"
	"github.com/0xsysr3ll/tvtimed/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently dispatched watches",
	Long: `Show the most recent watch events the bridge dispatched to TV Time,
newest first, including silently dropped ones (movies missing from the
TV Time catalog, failed watch calls).`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No watches recorded yet.")
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s  %-10s %-5s %-10s %s (tvdb %d)\n",
			entry.WatchedAt.Format("2006-01-02 15:04"),
			entry.PlexUser,
			entry.Kind,
			entry.Outcome,
			entry.Title,
			entry.ExternalID,
		)
	}
	return nil
}
