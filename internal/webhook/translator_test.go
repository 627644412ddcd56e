package webhook

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// newWebhookRequest builds a multipart/form-data request carrying the
// given JSON document in the "payload" field.
func newWebhookRequest(t *testing.T, payload string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("payload", payload); err != nil {
		t.Fatalf("failed to write payload field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/tvtime/plex", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDecode(t *testing.T) {
	payload := `{"event":"media.scrobble","Account":{"title":"alice"},"Metadata":{"librarySectionType":"movie","title":"Dune","Guid":[{"id":"tvdb://438"}]}}`

	decoded, err := Decode(newWebhookRequest(t, payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Event != "media.scrobble" {
		t.Errorf("expected scrobble event, got %q", decoded.Event)
	}
	if decoded.Account.Title != "alice" {
		t.Errorf("expected account title alice, got %q", decoded.Account.Title)
	}
	if decoded.Metadata == nil || decoded.Metadata.Title != "Dune" {
		t.Errorf("unexpected metadata: %+v", decoded.Metadata)
	}
}

func TestDecodeFailures(t *testing.T) {
	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tvtime/plex", bytes.NewBufferString(`{"event":"media.scrobble"}`))
		req.Header.Set("Content-Type", "application/json")
		if _, err := Decode(req); err == nil {
			t.Fatal("expected error for non-multipart content type")
		}
	})

	t.Run("missing boundary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tvtime/plex", bytes.NewBufferString(""))
		req.Header.Set("Content-Type", "multipart/form-data")
		if _, err := Decode(req); err == nil {
			t.Fatal("expected error for missing boundary")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tvtime/plex", bytes.NewBufferString("not a multipart body"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		if _, err := Decode(req); err == nil {
			t.Fatal("expected error for malformed multipart body")
		}
	})

	t.Run("missing payload field", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		_ = writer.WriteField("other", "value")
		_ = writer.Close()
		req := httptest.NewRequest(http.MethodPost, "/tvtime/plex", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if _, err := Decode(req); err == nil {
			t.Fatal("expected error for missing payload field")
		}
	})

	t.Run("payload is not JSON", func(t *testing.T) {
		if _, err := Decode(newWebhookRequest(t, "not json")); err == nil {
			t.Fatal("expected error for non-JSON payload")
		}
	})
}

func TestResolveMovie(t *testing.T) {
	payload := &Payload{
		Event: EventScrobble,
		Metadata: &Metadata{
			LibrarySectionType: "movie",
			Title:              "Dune",
			GUIDs:              []GUID{{ID: "tvdb://438"}},
		},
	}

	event, err := Resolve(payload)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := WatchEvent{Kind: KindMovie, Name: "Dune", ExternalID: 438}
	if event != want {
		t.Errorf("expected %+v, got %+v", want, event)
	}
}

func TestResolveShowFirstTVDBGUIDWins(t *testing.T) {
	payload := &Payload{
		Event: EventScrobble,
		Metadata: &Metadata{
			LibrarySectionType: "show",
			GrandparentTitle:   "The Wire",
			GUIDs: []GUID{
				{ID: "imdb://tt0306414"},
				{ID: "tvdb://12345"},
				{ID: "tvdb://99999"},
			},
		},
	}

	event, err := Resolve(payload)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := WatchEvent{Kind: KindShow, Name: "The Wire", ExternalID: 12345}
	if event != want {
		t.Errorf("expected %+v, got %+v", want, event)
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload *Payload
	}{
		{
			name:    "non-scrobble event",
			payload: &Payload{Event: "media.play", Metadata: &Metadata{LibrarySectionType: "movie", Title: "Dune", GUIDs: []GUID{{ID: "tvdb://438"}}}},
		},
		{
			name:    "absent event",
			payload: &Payload{},
		},
		{
			name:    "missing metadata",
			payload: &Payload{Event: EventScrobble},
		},
		{
			name:    "unsupported section type",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "artist", Title: "Kraftwerk"}},
		},
		{
			name:    "missing movie title",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "movie", GUIDs: []GUID{{ID: "tvdb://438"}}}},
		},
		{
			name:    "missing show title",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "show", GUIDs: []GUID{{ID: "tvdb://438"}}}},
		},
		{
			name:    "no GUIDs",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "movie", Title: "Dune"}},
		},
		{
			name:    "no tvdb GUID",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "movie", Title: "Dune", GUIDs: []GUID{{ID: "imdb://tt1160419"}}}},
		},
		{
			name:    "non-numeric tvdb GUID",
			payload: &Payload{Event: EventScrobble, Metadata: &Metadata{LibrarySectionType: "movie", Title: "Dune", GUIDs: []GUID{{ID: "tvdb://abc"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.payload); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}

// TestResolveDeterministic verifies the translation step is a pure
// function of the payload: decoding the same request body twice yields
// identical events.
func TestResolveDeterministic(t *testing.T) {
	payload := `{"event":"media.scrobble","Metadata":{"librarySectionType":"show","grandparentTitle":"The Wire","Guid":[{"id":"imdb://x"},{"id":"tvdb://12345"}]}}`

	first, err := Decode(newWebhookRequest(t, payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	second, err := Decode(newWebhookRequest(t, payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	firstEvent, err := Resolve(first)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	secondEvent, err := Resolve(second)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !reflect.DeepEqual(firstEvent, secondEvent) {
		t.Errorf("resolution is not deterministic: %+v vs %+v", firstEvent, secondEvent)
	}
}
