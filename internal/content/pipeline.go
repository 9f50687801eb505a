// Package content turns raw event content into HTML. The work is split into
// ordered string-to-string stages so each can be tested and reordered on its
// own; Renderer wires them together and hands the result to a markdown engine.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"nostr-render/internal/metrics"
	"nostr-render/internal/nostr"
	"nostr-render/internal/types"
)

const lineBreakMarker = "<br>"

// First-line ATX heading.
var leadingHeadingRegex = regexp.MustCompile(`^[ \t]*#{1,6}[ \t]+([^\n]*?)[ \t#]*(?:\n|$)`)

// Stage is one step of the pipeline.
type Stage struct {
	Name  string
	Apply func(ctx context.Context, content string) (string, error)
}

// pure wraps a non-failing string transform as a Stage.
func pure(name string, fn func(string) string) Stage {
	return Stage{Name: name, Apply: func(_ context.Context, s string) (string, error) {
		return fn(s), nil
	}}
}

// Renderer runs the full pipeline for one event at a time. It holds no
// per-call state and is safe for concurrent use.
type Renderer struct {
	resolver *Resolver
	engine   MarkdownEngine
	opts     Options
	dates    DateFormatter
	logger   *slog.Logger
}

// NewRenderer builds a Renderer. A nil engine selects goldmark configured from
// opts.Markdown.
func NewRenderer(loader ProfileLoader, engine MarkdownEngine, opts Options) *Renderer {
	if engine == nil {
		engine = NewGoldmarkEngine(opts.Markdown)
	}
	return &Renderer{
		resolver: NewResolver(loader, opts),
		engine:   engine,
		opts:     opts,
		dates:    DateFormatter{Location: opts.Location},
		logger:   slog.Default(),
	}
}

// WithLogger returns a copy of r logging to l.
func (r *Renderer) WithLogger(l *slog.Logger) *Renderer {
	cp := *r
	res := *r.resolver
	res.Logger = l
	cp.resolver = &res
	cp.logger = l
	return &cp
}

// Resolver exposes the identity resolver used by the substitution stage.
func (r *Renderer) Resolver() *Resolver {
	return r.resolver
}

// Dates returns the formatter used for titles.
func (r *Renderer) Dates() DateFormatter {
	return r.dates
}

// Metadata derives the display metadata of evt.
func (r *Renderer) Metadata(evt *types.Event) EventData {
	return EventMetadata(evt, r.dates)
}

// Stages returns the preprocessing stages for evt, in execution order. The
// markdown conversion is not part of the list.
func (r *Renderer) Stages(evt *types.Event) []Stage {
	title := r.Metadata(evt).Title

	stages := []Stage{
		{Name: "identities", Apply: func(ctx context.Context, s string) (string, error) {
			return r.resolver.SubstituteIdentities(ctx, s), nil
		}},
		pure("entities", func(s string) string { return NormalizeEntities(s, r.opts.viewerURL()) }),
		pure("images", EmbedImages),
		pure("videos", func(s string) string { return EmbedVideos(s, r.opts.LegacyVideoType) }),
		pure("audio", EmbedAudio),
		pure("smartypants", SmartyPants),
	}
	if evt.IsShortNote() {
		stages = append(stages, pure("linebreaks", InsertLineBreaks))
	}
	return append(stages, pure("title", func(s string) string { return StripTitleHeading(s, title) }))
}

// Preprocess runs every stage on the event content and returns the markdown
// that would be handed to the engine.
func (r *Renderer) Preprocess(ctx context.Context, evt *types.Event) (string, error) {
	text := evt.Content
	for _, stage := range r.Stages(evt) {
		var err error
		if text, err = stage.Apply(ctx, text); err != nil {
			return "", fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}
	return text, nil
}

// Render converts the event content to HTML. Identity lookups degrade to the
// literal reference; only a markdown engine failure is returned, wrapped in
// ErrRender.
func (r *Renderer) Render(ctx context.Context, evt *types.Event) (string, error) {
	start := time.Now()

	text, err := r.Preprocess(ctx, evt)
	if err != nil {
		metrics.RenderFailures.Inc()
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	html, err := r.engine.Convert(ctx, text)
	if err != nil {
		metrics.RenderFailures.Inc()
		r.logger.Error("markdown render failed", "event_id", nostr.ShortID(evt.ID), "error", err)
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	elapsed := time.Since(start)
	metrics.RenderDuration.Observe(float64(elapsed.Milliseconds()))
	r.logger.Debug("event rendered",
		"event_id", nostr.ShortID(evt.ID),
		"kind", evt.Kind,
		"duration_ms", elapsed.Milliseconds())

	return html, nil
}

// InsertLineBreaks follows every newline with an explicit <br>, so single
// line breaks in short notes survive markdown rendering.
func InsertLineBreaks(content string) string {
	return strings.ReplaceAll(content, "\n", "\n"+lineBreakMarker)
}

// StripTitleHeading drops a first-line heading that repeats title, which is
// already displayed above the body. The comparison also accepts the title
// after typographic replacement.
func StripTitleHeading(content, title string) string {
	m := leadingHeadingRegex.FindStringSubmatchIndex(content)
	if m == nil || title == "" {
		return content
	}

	heading := strings.TrimSpace(content[m[2]:m[3]])
	if heading != title && heading != SmartyPants(title) {
		return content
	}

	rest := strings.TrimLeft(content[m[1]:], "\n")
	return strings.TrimPrefix(rest, lineBreakMarker)
}
