// Package types provides shared type definitions used across internal packages.
package types

// Event kinds the renderer treats specially (NIP-01, NIP-23)
const (
	KindProfile  = 0
	KindNote     = 1
	KindLongForm = 30023
)

// Event represents a Nostr event (NIP-01)
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// IsShortNote reports whether the event is a kind 1 text note.
func (e *Event) IsShortNote() bool {
	return e.Kind == KindNote
}

// IsArticle reports whether the event is a NIP-23 long-form article.
func (e *Event) IsArticle() bool {
	return e.Kind == KindLongForm
}

// TagValue returns the value of the first tag with the given name.
func (e *Event) TagValue(name string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}

// Filter represents a Nostr subscription filter (NIP-01)
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Limit   int
}

// ToMap renders the filter in its REQ wire form.
func (f Filter) ToMap() map[string]interface{} {
	m := map[string]interface{}{}
	if len(f.IDs) > 0 {
		m["ids"] = f.IDs
	}
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	if f.Limit > 0 {
		m["limit"] = f.Limit
	}
	return m
}
