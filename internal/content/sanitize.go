package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	mediaTypeRegex = regexp.MustCompile(`^(?:video|audio)/[a-z0-9.+-]+$`)
	mediaSrcRegex  = regexp.MustCompile(`(?i)^https?://[^\s"'<>]+$`)
)

// NewSanitizePolicy extends the UGC policy with the media embeds the
// pipeline emits. Scripts, handlers and styles are still stripped.
func NewSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("video", "audio", "source")
	p.AllowAttrs("controls").OnElements("video", "audio")
	p.AllowAttrs("src").Matching(mediaSrcRegex).OnElements("source")
	p.AllowAttrs("type").Matching(mediaTypeRegex).OnElements("source")
	p.RequireNoReferrerOnLinks(true)
	return p
}
