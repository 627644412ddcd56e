package scrobbler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/0xsysr3ll/tvtimed/internal/webhook"
)

// Manager owns one processing path per configured account and routes
// resolved watch events to the path matching the event's Plex user.
// It implements webhook.Dispatcher.
type Manager struct {
	paths  map[string]*Path
	logger zerolog.Logger
}

// NewManager creates an empty manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		paths:  make(map[string]*Path),
		logger: logger.With().Str("component", "manager").Logger(),
	}
}

// Add registers a processing path under its Plex user.
func (m *Manager) Add(path *Path) {
	m.paths[path.plexUser] = path
}

// StartAll logs every account in concurrently. The browser-driven login
// is a multi-second operation, so accounts must not wait on each other;
// a failed login disables only its own path. An error is returned only
// when no account came up at all.
func (m *Manager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, path := range m.paths {
		wg.Add(1)
		go func(p *Path) {
			defer wg.Done()
			_ = p.Login(ctx)
		}(path)
	}
	wg.Wait()

	active := 0
	for _, path := range m.paths {
		if !path.Disabled() {
			active++
		}
	}
	if active == 0 {
		return fmt.Errorf("all %d account logins failed", len(m.paths))
	}
	m.logger.Info().Int("active", active).Int("configured", len(m.paths)).Msg("Accounts ready")
	return nil
}

// Dispatch routes an event to the owning account's path. Events for
// Plex users with no configured account are expected when several users
// share one media-server webhook, and are silently ignored.
func (m *Manager) Dispatch(ctx context.Context, plexUser string, event webhook.WatchEvent) bool {
	path, ok := m.paths[plexUser]
	if !ok {
		m.logger.Debug().Str("plex_user", plexUser).Msg("No account configured for Plex user")
		return false
	}
	return path.Dispatch(ctx, event)
}
