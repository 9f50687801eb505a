package content

import "time"

// DefaultViewerURL is the external viewer nostr: link targets are rewritten to.
const DefaultViewerURL = "https://njump.me/"

// MarkdownOptions selects the goldmark extensions used for the final render.
type MarkdownOptions struct {
	AutoLink      bool
	Tables        bool
	Strikethrough bool
	// UnsafeHTML lets raw HTML (the video/audio embeds, line breaks) through.
	// Output must be sanitized by the caller when enabled.
	UnsafeHTML bool
}

// Options carries every tunable of the pipeline. The zero value is usable but
// DefaultOptions matches what a browser client would expect.
type Options struct {
	ViewerURL string
	Location  *time.Location

	// LegacyVideoType forces type="video/mp4" on every video embed instead
	// of deriving it from the file extension.
	LegacyVideoType bool

	// MaxConcurrentLookups caps the identity fan-out per content string.
	// 0 means unbounded.
	MaxConcurrentLookups int
	// LookupTimeout bounds each identity lookup. 0 means no timeout.
	LookupTimeout time.Duration

	Markdown MarkdownOptions
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ViewerURL:            DefaultViewerURL,
		Location:             time.UTC,
		MaxConcurrentLookups: 16,
		LookupTimeout:        5 * time.Second,
		Markdown: MarkdownOptions{
			AutoLink:      true,
			Tables:        true,
			Strikethrough: true,
			UnsafeHTML:    true,
		},
	}
}

func (o Options) viewerURL() string {
	if o.ViewerURL == "" {
		return DefaultViewerURL
	}
	return o.ViewerURL
}
