package webhook

import (
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// EventScrobble is the only Plex event the bridge acts on. Everything
// else a shared webhook delivers (plays, pauses, rating changes) is
// expected traffic and silently ignored.
const EventScrobble = "media.scrobble"

// tvdbPrefix is the GUID namespace the tracking service's ids live in.
const tvdbPrefix = "tvdb://"

// maxFormMemory bounds the multipart form decode.
const maxFormMemory = 10 << 20

// Kind is the category of a watch event.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// WatchEvent is the canonical, fully resolved form of a scrobble:
// what was watched and the external id to report it under.
type WatchEvent struct {
	Kind       Kind
	Name       string
	ExternalID int
}

// Decode extracts the webhook payload from a raw request.
//
// The request must be multipart/form-data with an explicit boundary and
// carry a "payload" field holding a JSON document. Any shape violation
// is an error; callers collapse every decode failure to an ignored
// (204) response.
func Decode(r *http.Request) (*Payload, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parsing content type: %w", err)
	}
	if mediaType != "multipart/form-data" {
		return nil, fmt.Errorf("unexpected content type %q", mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, fmt.Errorf("content type missing boundary parameter")
	}

	form, err := multipart.NewReader(r.Body, boundary).ReadForm(maxFormMemory)
	if err != nil {
		return nil, fmt.Errorf("decoding form data: %w", err)
	}
	defer func() { _ = form.RemoveAll() }()

	values := form.Value["payload"]
	if len(values) == 0 {
		return nil, fmt.Errorf("payload field not found in form data")
	}

	var payload Payload
	if err := json.Unmarshal([]byte(values[0]), &payload); err != nil {
		return nil, fmt.Errorf("decoding payload JSON: %w", err)
	}
	return &payload, nil
}

// Resolve validates a decoded payload and maps it to a WatchEvent.
//
// Resolution is deterministic: the same payload always yields the same
// event. Every validation failure is an error; callers collapse them
// all to an ignored (204) response, since scrobble traffic legitimately
// includes events the bridge cannot or should not act on.
func Resolve(p *Payload) (WatchEvent, error) {
	if p.Event != EventScrobble {
		return WatchEvent{}, fmt.Errorf("ignoring event %q", p.Event)
	}
	if p.Metadata == nil {
		return WatchEvent{}, fmt.Errorf("metadata not found in payload")
	}

	var kind Kind
	var name string
	switch p.Metadata.LibrarySectionType {
	case "movie":
		kind, name = KindMovie, p.Metadata.Title
	case "show":
		kind, name = KindShow, p.Metadata.GrandparentTitle
	default:
		return WatchEvent{}, fmt.Errorf("unsupported library section type %q", p.Metadata.LibrarySectionType)
	}
	if name == "" {
		return WatchEvent{}, fmt.Errorf("media name not found in metadata")
	}

	if len(p.Metadata.GUIDs) == 0 {
		return WatchEvent{}, fmt.Errorf("no GUIDs in metadata")
	}

	// First tvdb:// entry wins; other namespaces are ignored.
	for _, guid := range p.Metadata.GUIDs {
		if !strings.HasPrefix(guid.ID, tvdbPrefix) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(guid.ID, tvdbPrefix))
		if err != nil {
			return WatchEvent{}, fmt.Errorf("parsing GUID %q: %w", guid.ID, err)
		}
		return WatchEvent{Kind: kind, Name: name, ExternalID: id}, nil
	}
	return WatchEvent{}, fmt.Errorf("no %s GUID in metadata", tvdbPrefix)
}
