package content

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownEngine converts the fully preprocessed markdown into HTML.
type MarkdownEngine interface {
	Convert(ctx context.Context, markdown string) (string, error)
}

// GoldmarkEngine converts markdown with goldmark (pure Go).
type GoldmarkEngine struct {
	md goldmark.Markdown
}

// NewGoldmarkEngine creates a GoldmarkEngine with the extensions selected in opts.
func NewGoldmarkEngine(opts MarkdownOptions) *GoldmarkEngine {
	var exts []goldmark.Extender
	if opts.AutoLink {
		exts = append(exts, extension.Linkify)
	}
	if opts.Tables {
		exts = append(exts, extension.Table)
	}
	if opts.Strikethrough {
		exts = append(exts, extension.Strikethrough)
	}

	var rendererOpts []goldmark.Option
	if opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	md := goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)
	return &GoldmarkEngine{md: md}
}

// Convert renders markdown to an HTML fragment. Goldmark has no context
// support, so cancellation is observed around the conversion goroutine.
func (e *GoldmarkEngine) Convert(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(markdown), &buf); err != nil {
			done <- result{err: err}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
