package scrobbler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/0xsysr3ll/tvtimed/internal/history"
	"github.com/0xsysr3ll/tvtimed/internal/webhook"
	"github.com/0xsysr3ll/tvtimed/pkg/tvtime"
)

// API is the slice of the TV Time client a processing path drives.
type API interface {
	Login(ctx context.Context) error
	FindMovieUUID(ctx context.Context, movieID int) (string, error)
	MarkEpisodeWatched(ctx context.Context, episodeID int) (*tvtime.EpisodeWatch, error)
	MarkMovieWatched(ctx context.Context, movieUUID string) error
}

// Journal records dispatched watch events. Implemented by history.Store.
type Journal interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Path is one Plex user's independent processing path: its own TV Time
// client, session, and browser lifecycle. Paths share no mutable state
// with each other; isolation between accounts is partitioning, not
// locking.
type Path struct {
	plexUser string
	api      API
	journal  Journal
	logger   zerolog.Logger

	// mu serializes event handling for this account so the
	// re-authentication retry never races another in-flight call.
	mu       sync.Mutex
	disabled bool
}

// NewPath creates a processing path for one account.
func NewPath(plexUser string, api API, journal Journal, logger zerolog.Logger) *Path {
	return &Path{
		plexUser: plexUser,
		api:      api,
		journal:  journal,
		logger:   logger.With().Str("component", "scrobbler").Str("plex_user", plexUser).Logger(),
	}
}

// Login runs the full TV Time login flow for this account. On failure
// the path is disabled: no event can be handled without a session, but
// sibling accounts keep running.
func (p *Path) Login(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.api.Login(ctx); err != nil {
		p.disabled = true
		p.logger.Error().Err(err).Msg("TV Time login failed, disabling account")
		return err
	}
	p.disabled = false
	p.logger.Info().Msg("Connected to TV Time account")
	return nil
}

// Disabled reports whether the path was shut down by a failed login.
func (p *Path) Disabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled
}

// Dispatch delivers one watch event to TV Time and reports whether the
// watch actually went through. All failures are silent to the webhook
// caller; the detail lands in the log and the journal.
func (p *Path) Dispatch(ctx context.Context, event webhook.WatchEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disabled {
		p.logger.Warn().Str("name", event.Name).Msg("Dropping event for disabled account")
		return false
	}

	switch event.Kind {
	case webhook.KindMovie:
		return p.dispatchMovie(ctx, event)
	case webhook.KindShow:
		return p.dispatchEpisode(ctx, event)
	default:
		p.logger.Error().Str("kind", string(event.Kind)).Msg("Unknown watch event kind")
		return false
	}
}

func (p *Path) dispatchMovie(ctx context.Context, event webhook.WatchEvent) bool {
	uuid, err := p.api.FindMovieUUID(ctx, event.ExternalID)
	if err != nil {
		p.logger.Error().Err(err).Str("movie", event.Name).Msg("Movie search failed")
		p.record(ctx, event, history.OutcomeFailed)
		return false
	}
	if uuid == "" {
		// The movie may simply be absent from TV Time's catalog.
		p.logger.Debug().Str("movie", event.Name).Int("external_id", event.ExternalID).Msg("Movie not found on TV Time")
		p.record(ctx, event, history.OutcomeUnresolved)
		return false
	}

	if err := p.api.MarkMovieWatched(ctx, uuid); err != nil {
		p.logger.Error().Err(err).Str("movie", event.Name).Msg("Failed to mark movie as watched")
		p.record(ctx, event, history.OutcomeFailed)
		return false
	}

	p.logger.Info().Str("movie", event.Name).Msg("Marked movie as watched")
	p.record(ctx, event, history.OutcomeWatched)
	return true
}

func (p *Path) dispatchEpisode(ctx context.Context, event webhook.WatchEvent) bool {
	watch, err := p.api.MarkEpisodeWatched(ctx, event.ExternalID)
	if err != nil {
		p.logger.Error().Err(err).Str("show", event.Name).Int("episode_id", event.ExternalID).Msg("Failed to mark episode as watched")
		p.record(ctx, event, history.OutcomeFailed)
		return false
	}

	p.logger.Info().
		Str("show", watch.Show.Name).
		Int("season", watch.Season.Number).
		Int("episode", watch.Number).
		Msg("Marked episode as watched")
	p.record(ctx, event, history.OutcomeWatched)
	return true
}

// record appends the outcome to the journal. Journal trouble must never
// fail a dispatch.
func (p *Path) record(ctx context.Context, event webhook.WatchEvent, outcome string) {
	if p.journal == nil {
		return
	}
	entry := history.Entry{
		PlexUser:   p.plexUser,
		Kind:       string(event.Kind),
		Title:      event.Name,
		ExternalID: event.ExternalID,
		Outcome:    outcome,
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.logger.Error().Err(err).Msg("Failed to record watch in history")
	}
}
