package tvtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// localStorageTokenKey is the local storage slot the web client writes
// its transient JWT into.
const localStorageTokenKey = "flutter.jwtToken"

// Browser is one headless browser session. Implementations are expected
// to be single-use: a session is launched, driven, and quit per login.
type Browser interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// LocalStorageItem reads a local storage key from the current page.
	// A missing key yields an empty string, not an error.
	LocalStorageItem(ctx context.Context, key string) (string, error)

	// Quit tears the browser session down. Safe to call exactly once.
	Quit() error
}

// BrowserLauncher starts headless browser sessions.
type BrowserLauncher interface {
	Launch(ctx context.Context) (Browser, error)
}

// errTokenNotReady signals that the local storage slot is still empty
// and the poll should continue.
var errTokenNotReady = errors.New("tvtime: token not yet in local storage")

// Login runs the full login flow and replaces the client's session with
// the resulting token pair.
//
// The flow drives a headless browser to the TV Time auth page, polls
// local storage for the transient JWT the page's client code writes,
// then exchanges that JWT plus the account credentials for a long-lived
// token pair. Both failure modes (ErrTokenUnavailable, ErrLoginFailed)
// are fatal for the account: the session is left untouched and no watch
// call can proceed.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

// login is Login without the lock, for use inside the watch retry cycle.
func (c *Client) login(ctx context.Context) error {
	pair, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	c.session.Replace(pair)
	return nil
}

// acquire obtains a fresh token pair without touching the session.
func (c *Client) acquire(ctx context.Context) (TokenPair, error) {
	if c.browser == nil {
		return TokenPair{}, fmt.Errorf("%w: no browser configured", ErrTokenUnavailable)
	}

	transient, err := c.fetchTransientToken(ctx)
	if err != nil {
		return TokenPair{}, err
	}

	return c.exchange(ctx, transient)
}

// fetchTransientToken drives a browser session to the auth page and polls
// local storage for the transient JWT. The session is quit unconditionally
// before returning, success or failure.
func (c *Client) fetchTransientToken(ctx context.Context) (string, error) {
	browser, err := c.browser.Launch(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: launching browser: %v", ErrTokenUnavailable, err)
	}
	defer func() {
		if qerr := browser.Quit(); qerr != nil {
			c.logDebugf("tvtime: browser quit: %v", qerr)
		}
	}()

	if err := browser.Navigate(ctx, c.authPageURL); err != nil {
		return "", fmt.Errorf("%w: navigating to auth page: %v", ErrTokenUnavailable, err)
	}

	// The page can take a while to load before its client code runs.
	if !sleep(ctx, c.settleDelay) {
		return "", ctx.Err()
	}

	// Each poll attempt waits a bit longer than the last: pollBase before
	// the first read, then pollBase+pollStep, then pollBase+2*pollStep.
	if !sleep(ctx, c.pollBase) {
		return "", ctx.Err()
	}

	var token string
	attempt := 0
	err = retry.Do(
		func() error {
			attempt++
			c.logDebugf("tvtime: attempt %d to fetch JWT token", attempt)
			value, err := browser.LocalStorageItem(ctx, localStorageTokenKey)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if value == "" {
				return errTokenNotReady
			}
			token = value
			return nil
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return c.pollBase + time.Duration(n+1)*c.pollStep
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}

	// The web client stores the token JSON-quoted.
	return strings.Trim(token, `"`), nil
}

// exchange trades the transient JWT plus the account credentials for a
// long-lived token pair.
func (c *Client) exchange(ctx context.Context, transient string) (TokenPair, error) {
	credentials, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: encoding credentials: %v", ErrLoginFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(credentials))
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: creating request: %v", ErrLoginFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+transient)
	req.Header.Set("Content-Type", "application/json")

	c.logDebugf("tvtime: exchanging transient token for %s", c.username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: reading response: %v", ErrLoginFailed, err)
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return TokenPair{}, fmt.Errorf("%w: decoding response: %v", ErrLoginFailed, err)
	}
	if login.Data.JWTToken == "" || login.Data.JWTRefreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: token pair missing from response", ErrLoginFailed)
	}

	return TokenPair{
		AccessToken:  login.Data.JWTToken,
		RefreshToken: login.Data.JWTRefreshToken,
	}, nil
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}
