package tvtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// FindMovieUUID resolves a movie's external id to its TV Time UUID via
// the search endpoint.
//
// An empty UUID with a nil error means the movie is not in TV Time's
// catalog (or the service reported a failed search); absence of a match
// is a normal outcome, not a fault. Only transport failures are errors.
func (c *Client) FindMovieUUID(ctx context.Context, movieID int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := fmt.Sprintf("%s?o=%s&q=%d&offset=0&limit=1", c.baseURL, searchUpstream, movieID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("tvtime: creating search request: %w", err)
	}
	c.applyHeaders(req)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		c.logDebugf("tvtime: search response did not decode: %v", err)
		return "", nil
	}
	if search.Status != "success" {
		c.logDebugf("tvtime: search for movie %d reported status %q", movieID, search.Status)
		return "", nil
	}

	for _, movie := range search.Data {
		if movie.ID == movieID {
			return movie.UUID, nil
		}
	}
	return "", nil
}

// MarkEpisodeWatched marks an episode as watched, identified by its
// external (TVDB) id. On success it returns the season/episode/show
// detail reported by the service.
//
// If the response fails to parse as the expected envelope — the symptom
// of an expired bearer token — the client re-authenticates once and
// retries once. A second unparsable response abandons the call.
func (c *Client) MarkEpisodeWatched(ctx context.Context, episodeID int) (*EpisodeWatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := fmt.Sprintf("%s?o=%s%d&is_rewatch=0", c.baseURL, episodeUpstream, episodeID)

	var watch EpisodeWatch
	err := c.watchWithRetry(ctx, "watch_episode", func() (*http.Request, error) {
		// The endpoint expects the refresh token, JSON-encoded, as body.
		token, err := json.Marshal(c.session.Pair().RefreshToken)
		if err != nil {
			return nil, err
		}
		return http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(token))
	}, func(body []byte) error {
		if err := json.Unmarshal(body, &watch); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if watch.Result != "OK" {
		return nil, &APIError{Op: "watch_episode", Status: watch.Result}
	}
	return &watch, nil
}

// MarkMovieWatched marks a movie as watched by its TV Time UUID.
//
// The same single re-auth retry as MarkEpisodeWatched applies.
func (c *Client) MarkMovieWatched(ctx context.Context, movieUUID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := fmt.Sprintf("%s?o="+movieUpstreamFormat, c.baseURL, movieUUID)

	var watch movieWatchResponse
	err := c.watchWithRetry(ctx, "watch_movie", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	}, func(body []byte) error {
		return json.Unmarshal(body, &watch)
	})
	if err != nil {
		return err
	}

	if watch.Status != "success" {
		return &APIError{Op: "watch_movie", Status: watch.Status}
	}
	return nil
}

// watchWithRetry runs one watch call with the shared retry policy:
// at most one re-authentication cycle per call, triggered only by a
// response that fails to parse. Transport failures are returned
// immediately, and a response that parses but reports failure is the
// caller's to interpret.
//
// The request is rebuilt on retry so it carries the replaced session's
// headers (and, for episodes, the new refresh token).
func (c *Client) watchWithRetry(ctx context.Context, op string, newRequest func() (*http.Request, error), parse func([]byte) error) error {
	for attempt := 0; attempt <= 1; attempt++ {
		req, err := newRequest()
		if err != nil {
			return fmt.Errorf("tvtime: creating %s request: %w", op, err)
		}
		c.applyHeaders(req)

		body, err := c.do(req)
		if err != nil {
			return err
		}

		if perr := parse(body); perr != nil {
			if attempt == 1 {
				c.logDebugf("tvtime: %s failed to parse again after re-auth, giving up", op)
				return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, op, perr)
			}
			c.logDebugf("tvtime: %s response did not parse, token may have expired, re-authenticating", op)
			if lerr := c.login(ctx); lerr != nil {
				return lerr
			}
			continue
		}
		return nil
	}
	return nil
}

// do issues the request and reads the response body. Any failure here is
// a transport error: reported immediately, never retried.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tvtime: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tvtime: reading response: %w", err)
	}
	return body, nil
}

// applyHeaders attaches the session's authorized headers. The Host entry
// must go through the request's Host field to take effect.
func (c *Client) applyHeaders(req *http.Request) {
	for key, value := range c.session.AuthorizedHeaders() {
		if key == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(key, value)
	}
}
