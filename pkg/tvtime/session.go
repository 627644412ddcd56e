package tvtime

import "sync"

// TokenPair is a matched access/refresh token pair issued by the login
// endpoint. The access token authorizes API calls; the refresh token is
// carried as the body of the episode watch call.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session holds the current bearer token pair for one account.
//
// A Session is either fully empty (pre-login) or holds a matched pair;
// Replace swaps both tokens together so a concurrent reader never
// observes an access token from one pair with a refresh token from
// another.
type Session struct {
	mu   sync.RWMutex
	pair TokenPair
}

// Replace atomically overwrites both tokens.
func (s *Session) Replace(pair TokenPair) {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
}

// Pair returns the current token pair.
func (s *Session) Pair() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

// Empty reports whether the session holds no tokens yet.
func (s *Session) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken == "" && s.pair.RefreshToken == ""
}

// AuthorizedHeaders returns the headers carried by every API call:
// the bearer access token plus the fixed content type and host the
// sidecar proxy expects.
func (s *Session) AuthorizedHeaders() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"Authorization": "Bearer " + s.pair.AccessToken,
		"Content-Type":  "application/json",
		"Host":          apiHost,
	}
}
