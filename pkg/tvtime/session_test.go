package tvtime

import (
	"sync"
	"testing"
)

func TestSessionEmpty(t *testing.T) {
	s := &Session{}
	if !s.Empty() {
		t.Error("expected new session to be empty")
	}

	s.Replace(TokenPair{AccessToken: "access", RefreshToken: "refresh"})
	if s.Empty() {
		t.Error("expected session to be non-empty after Replace")
	}
}

func TestSessionAuthorizedHeaders(t *testing.T) {
	s := &Session{}
	s.Replace(TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"})

	headers := s.AuthorizedHeaders()
	if got := headers["Authorization"]; got != "Bearer access-token" {
		t.Errorf("expected bearer header, got %q", got)
	}
	if got := headers["Content-Type"]; got != "application/json" {
		t.Errorf("expected json content type, got %q", got)
	}
	if got := headers["Host"]; got != "app.tvtime.com:80" {
		t.Errorf("expected sidecar host header, got %q", got)
	}
}

// TestSessionReplaceAtomic verifies a reader never observes an access
// token from one pair combined with a refresh token from another.
func TestSessionReplaceAtomic(t *testing.T) {
	s := &Session{}
	s.Replace(TokenPair{AccessToken: "a0", RefreshToken: "r0"})

	pairs := []TokenPair{
		{AccessToken: "a0", RefreshToken: "r0"},
		{AccessToken: "a1", RefreshToken: "r1"},
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			s.Replace(pairs[i%2])
		}
		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			pair := s.Pair()
			if pair != pairs[0] && pair != pairs[1] {
				t.Errorf("observed mixed token pair: %+v", pair)
				return
			}
		}
	}()

	wg.Wait()
}
