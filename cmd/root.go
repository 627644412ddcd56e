/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tvtimed",
	Short: "Plex webhook bridge for TV Time",
	Long: `tvtimed bridges Plex scrobble webhooks to TV Time.

It runs a small webhook listener that turns Plex "media.scrobble"
events into authenticated TV Time API calls, marking the episode or
movie as watched on the TV Time account mapped to the Plex user that
played it.

TV Time has no public API, so tvtimed signs in the way the official web
client does: a headless browser fetches a transient token which is then
exchanged, together with the account credentials, for a bearer token
pair.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags can be added here if needed
}
