package webhook

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// Dispatcher delivers a resolved watch event to the processing path of
// the Plex user that produced it.
type Dispatcher interface {
	// Dispatch reports whether the event was delivered to the tracking
	// service. False covers every silent outcome: unknown user, disabled
	// account, unresolved movie, failed watch call.
	Dispatch(ctx context.Context, plexUser string, event WatchEvent) bool
}

// Handler is the inbound webhook endpoint. The caller only ever
// observes two outcomes: an empty 204 for anything ignored, and
// "OK" with 200 for a fully dispatched watch. Diagnostic detail is
// logged, never returned in the response.
type Handler struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(dispatcher Dispatcher, logger zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "webhook").Logger(),
	}
}

// ServeHTTP handles one Plex webhook request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := Decode(r)
	if err != nil {
		h.logger.Debug().Err(err).Msg("Dropping undecodable webhook request")
		ignored(w)
		return
	}

	event, err := Resolve(payload)
	if err != nil {
		h.logger.Debug().Err(err).Str("event", payload.Event).Msg("Dropping webhook event")
		ignored(w)
		return
	}

	h.logger.Debug().
		Str("kind", string(event.Kind)).
		Str("name", event.Name).
		Int("external_id", event.ExternalID).
		Str("plex_user", payload.Account.Title).
		Msg("Received scrobble event")

	if !h.dispatcher.Dispatch(r.Context(), payload.Account.Title, event) {
		ignored(w)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func ignored(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
