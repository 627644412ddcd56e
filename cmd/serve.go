package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/0xsysr3ll/tvtimed/internal/browser"
	"github.com/0xsysr3ll/tvtimed/internal/config"
	"github.com/0xsysr3ll/tvtimed/internal/history"
	"github.com/0xsysr3ll/tvtimed/internal/scrobbler"
	"github.com/0xsysr3ll/tvtimed/internal/webhook"
	"github.com/0xsysr3ll/tvtimed/pkg/tvtime"
)

var (
	serveLogFile  string
	serveLogLevel string
	serveListen   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook bridge",
	Long: `Run the webhook bridge that turns Plex scrobble events into TV Time watches.

The bridge will:
- Log every configured account in to TV Time (headless browser flow)
- Listen for Plex webhooks and pick out "media.scrobble" events
- Mark the scrobbled episode or movie as watched on the matching account
- Re-authenticate once and retry when a watch call hits an expired token
- Record every dispatched watch in a local history database

Accounts are fully independent: a failed login disables that account
only, and each account handles its events serially on its own session.

The bridge runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for systemd).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Command-line flags
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Log file path (default: stderr)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	// Set up logging
	logger := setupLogger(serveLogFile, serveLogLevel)

	logger.Info().
		Str("version", version).
		Int("accounts", len(cfg.Accounts)).
		Msg("Starting TV Time bridge")

	// Open the watch-history journal
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() { _ = store.Close() }()

	// One processing path per account, all sharing one browser launcher
	// (each login launches its own browser process).
	launcher := browser.NewLauncher(cfg.Browser.ExecPath)
	manager := scrobbler.NewManager(logger)
	for _, account := range cfg.Accounts {
		client, err := tvtime.NewClient(tvtime.Config{
			Username: account.Username,
			Password: account.Password,
			Browser:  launcher,
			Logger:   apiLogger{logger: logger.With().Str("plex_user", account.PlexUser).Logger()},
		})
		if err != nil {
			return fmt.Errorf("failed to create TV Time client for %q: %w", account.PlexUser, err)
		}
		manager.Add(scrobbler.NewPath(account.PlexUser, client, store, logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	// The browser-driven logins take a while; run them before accepting
	// webhooks so the first event does not land on an empty session.
	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start accounts: %w", err)
	}

	router := mux.NewRouter()
	router.Handle(cfg.WebhookPath, webhook.NewHandler(manager, logger)).Methods(http.MethodPost)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	logger.Info().Str("listen", cfg.Listen).Str("path", cfg.WebhookPath).Msg("Webhook listener started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listener error: %w", err)
	}

	logger.Info().Msg("Bridge stopped")
	return nil
}

// apiLogger adapts zerolog to the tvtime client's debug logger interface.
type apiLogger struct {
	logger zerolog.Logger
}

func (l apiLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
