// Package tvtime provides a client for the TV Time private API.
//
// TV Time has no public API; this package drives the same endpoints the
// official web client uses, reached through TV Time's sidecar proxy. All
// calls carry a bearer token pair obtained by exchanging a transient JWT
// (harvested from the web client's local storage by a headless browser)
// together with the account credentials.
//
// Example usage:
//
//	client, err := tvtime.NewClient(tvtime.Config{
//	    Username: "user@example.com",
//	    Password: "hunter2",
//	    Browser:  launcher,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	watch, err := client.MarkEpisodeWatched(ctx, 8675309)
package tvtime

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the sidecar proxy endpoint used for API calls.
	DefaultBaseURL = "https://app.tvtime.com/sidecar"

	// DefaultLoginURL is the sidecar-proxied login endpoint.
	DefaultLoginURL = "https://beta-app.tvtime.com/sidecar?o=https://auth.tvtime.com/v1/login"

	// DefaultAuthPageURL is the web client page whose client code writes
	// the transient JWT into local storage.
	DefaultAuthPageURL = "https://app.tvtime.com/welcome?mode=auth"

	// apiHost is the Host header value expected by the sidecar proxy.
	apiHost = "app.tvtime.com:80"
)

// Upstream API endpoints, reached through the sidecar proxy.
const (
	searchUpstream      = "https://search.tvtime.com/v1/search/series,movie"
	episodeUpstream     = "https://api2.tozelabs.com/v2/watched_episodes/episode/"
	movieUpstreamFormat = "https://msapi.tvtime.com/prod/v1/tracking/%s/watch"
)

// Config holds client configuration.
type Config struct {
	Username    string          // Required: TV Time account username
	Password    string          // Required: TV Time account password
	Browser     BrowserLauncher // Required for Login: headless browser capability
	HTTPClient  *http.Client    // Optional: HTTP client (defaults to a client with bounded timeouts)
	BaseURL     string          // Optional: sidecar base URL (defaults to DefaultBaseURL, used for testing)
	LoginURL    string          // Optional: login endpoint (defaults to DefaultLoginURL, used for testing)
	AuthPageURL string          // Optional: auth page URL (defaults to DefaultAuthPageURL)
	Logger      Logger          // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for TV Time API operations.
//
// A Client owns exactly one Session. Watch operations and Login are
// serialized on an internal mutex so that the re-authentication retry
// never races a concurrent call against a half-replaced Session.
type Client struct {
	username    string
	password    string
	browser     BrowserLauncher
	httpClient  *http.Client
	baseURL     string
	loginURL    string
	authPageURL string
	logger      Logger

	session *Session

	// mu serializes the call / detect-expiry / re-auth / retry cycle.
	mu sync.Mutex

	// Local storage poll schedule. Overridable in tests.
	settleDelay time.Duration
	pollBase    time.Duration
	pollStep    time.Duration
}

// NewClient creates a new TV Time API client.
//
// Returns an error if required configuration (Username, Password) is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("tvtime: Username is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("tvtime: Password is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newDefaultHTTPClient()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	loginURL := cfg.LoginURL
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	authPageURL := cfg.AuthPageURL
	if authPageURL == "" {
		authPageURL = DefaultAuthPageURL
	}

	return &Client{
		username:    cfg.Username,
		password:    cfg.Password,
		browser:     cfg.Browser,
		httpClient:  httpClient,
		baseURL:     baseURL,
		loginURL:    loginURL,
		authPageURL: authPageURL,
		logger:      cfg.Logger,
		session:     &Session{},
		settleDelay: 5 * time.Second,
		pollBase:    7 * time.Second,
		pollStep:    2 * time.Second,
	}, nil
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// newDefaultHTTPClient builds an HTTP client with bounded connect and read
// timeouts so a hung upstream cannot stall a webhook handler indefinitely.
func newDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
