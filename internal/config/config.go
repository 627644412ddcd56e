package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Address the webhook listener binds to
	Listen string

	// Path the Plex webhook is mounted at
	WebhookPath string

	// Path to the watch-history database
	HistoryDB string

	// Headless browser settings for the TV Time login flow
	Browser BrowserConfig

	// TV Time accounts, one per Plex user
	Accounts []Account
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	// Path to the browser binary (empty = let the driver find one)
	ExecPath string
}

// Account maps one Plex user to one TV Time account
type Account struct {
	// Plex account title events must match to be dispatched here
	PlexUser string `mapstructure:"plex_user"`

	// TV Time credentials
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("listen", ":5000")
	v.SetDefault("webhook_path", "/tvtime/plex")
	v.SetDefault("history_db", filepath.Join(getDataDir(), "history.db"))

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	v.SetEnvPrefix("TVTIMED")
	v.AutomaticEnv()

	cfg := &Config{
		Listen:      v.GetString("listen"),
		WebhookPath: v.GetString("webhook_path"),
		HistoryDB:   v.GetString("history_db"),
		Browser: BrowserConfig{
			ExecPath: v.GetString("browser.exec_path"),
		},
	}

	if err := v.UnmarshalKey("accounts", &cfg.Accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration can actually drive the bridge
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}
	seen := make(map[string]bool)
	for i, account := range c.Accounts {
		if account.PlexUser == "" {
			return fmt.Errorf("account %d: plex_user is required", i)
		}
		if account.Username == "" || account.Password == "" {
			return fmt.Errorf("account %q: username and password are required", account.PlexUser)
		}
		if seen[account.PlexUser] {
			return fmt.Errorf("account %q: duplicate plex_user", account.PlexUser)
		}
		seen[account.PlexUser] = true
	}
	return nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "tvtimed")
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// getDataDir returns the data directory path
// Creates the directory if it doesn't exist
func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "tvtimed")
	_ = os.MkdirAll(dataDir, 0755)

	return dataDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}
