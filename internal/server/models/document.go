package models

// Document is the whole persisted state of the document-store backends.
type Document struct {
	Users    []User    `json:"users"`
	Sessions []Session `json:"sessions"`
	Entries  []Entry   `json:"entries"`
}

// NewDocument returns an empty document whose collections encode as [] rather
// than null.
func NewDocument() *Document {
	return &Document{Users: []User{}, Sessions: []Session{}, Entries: []Entry{}}
}

// Normalize replaces nil collections with empty ones.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Sessions == nil {
		d.Sessions = []Session{}
	}
	if d.Entries == nil {
		d.Entries = []Entry{}
	}
}
