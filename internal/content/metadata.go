package content

import (
	"nostr-render/internal/types"
	"nostr-render/internal/util"
)

const (
	defaultArticleTitle = "No title"
	noteTitlePrefix     = "Note of "
	summaryRunes        = 200
)

// EventData is the display view derived from an event. It is computed on
// demand and never stored.
type EventData struct {
	ID        string
	Kind      int
	CreatedAt int64
	Title     string
	Image     string
	Summary   string
	Content   string
}

// EventMetadata derives title, summary and image from evt. Articles read the
// title/summary tags; everything else is treated as a short note titled by
// its creation date.
func EventMetadata(evt *types.Event, dates DateFormatter) EventData {
	data := EventData{
		ID:        evt.ID,
		Kind:      evt.Kind,
		CreatedAt: evt.CreatedAt,
		Content:   evt.Content,
	}

	if evt.IsArticle() {
		data.Title = defaultArticleTitle
		if title, ok := evt.TagValue("title"); ok {
			data.Title = title
		}
		data.Summary, _ = evt.TagValue("summary")
	} else {
		data.Title = noteTitlePrefix + dates.Format(evt.CreatedAt, false)
		data.Summary = util.FirstRunes(evt.Content, summaryRunes) + "..."
	}

	data.Image, _ = evt.TagValue("image")
	return data
}

// IsRootNote reports whether evt starts a thread: no "e" tag marks it as a
// root or reply reference (NIP-10 marker at index 3).
func IsRootNote(evt *types.Event) bool {
	for _, tag := range evt.Tags {
		if len(tag) < 4 || tag[0] != "e" {
			continue
		}
		if tag[3] == "root" || tag[3] == "reply" {
			return false
		}
	}
	return true
}
