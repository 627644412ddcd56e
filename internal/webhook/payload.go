package webhook

// Payload models the JSON document carried in the "payload" form field
// of a Plex webhook request. Only the fields the translator reads are
// mapped.
type Payload struct {
	Event    string    `json:"event"`
	Account  Account   `json:"Account"`
	Metadata *Metadata `json:"Metadata"`
}

// Account identifies the Plex account that triggered the event.
type Account struct {
	Title string `json:"title"`
}

// Metadata describes the played media item.
type Metadata struct {
	LibrarySectionType string `json:"librarySectionType"`
	Title              string `json:"title,omitempty"`
	GrandparentTitle   string `json:"grandparentTitle,omitempty"`
	GUIDs              []GUID `json:"Guid,omitempty"`
}

// GUID is a prefixed external identifier, e.g. "tvdb://12345".
type GUID struct {
	ID string `json:"id"`
}
