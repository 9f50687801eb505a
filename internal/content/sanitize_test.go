package content

import (
	"context"
	"strings"
	"testing"

	"nostr-render/internal/types"
)

func TestSanitizePolicy(t *testing.T) {
	t.Parallel()

	p := NewSanitizePolicy()
	got := p.Sanitize(`<video controls onplay="steal()"><source src="javascript:alert(1)" type="text/html"></video>` +
		`<audio controls><source src="https://x.com/a.mp3" type="audio/mpeg"></audio>`)

	for _, banned := range []string{"onplay", "javascript:", "text/html"} {
		if strings.Contains(got, banned) {
			t.Errorf("sanitized output kept %q: %s", banned, got)
		}
	}
	for _, want := range []string{"<video", "<audio", `src="https://x.com/a.mp3"`, `type="audio/mpeg"`} {
		if !strings.Contains(got, want) {
			t.Errorf("sanitized output lost %q: %s", want, got)
		}
	}
}

func TestSanitizePolicyMediaSource(t *testing.T) {
	t.Parallel()

	p := NewSanitizePolicy()
	tests := []struct {
		name string
		src  string
		keep bool
	}{
		{"https", "https://x.com/v.mp4", true},
		{"http", "http://x.com/v.mp4", true},
		{"javascript", "javascript:alert(1)", false},
		{"javascript uppercase", "JAVASCRIPT:alert(1)", false},
		{"leading space", " javascript:alert(1)", false},
		{"data", "data:video/mp4;base64,AAAA", false},
		{"vbscript", "vbscript:msgbox(1)", false},
		{"relative", "/v.mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Sanitize(`<video controls><source src="` + tt.src + `" type="video/mp4"></video>`)
			if kept := strings.Contains(got, "src="); kept != tt.keep {
				t.Errorf("src %q kept = %v, want %v: %s", tt.src, kept, tt.keep, got)
			}
		})
	}
}

func TestRenderedRawSourceIsSanitized(t *testing.T) {
	t.Parallel()

	r := NewRenderer(nil, nil, DefaultOptions())
	evt := &types.Event{
		Kind:    types.KindNote,
		Content: `<video controls><source src="javascript:alert(1)" type="video/mp4"></video>`,
	}
	html, err := r.Render(context.Background(), evt)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := NewSanitizePolicy().Sanitize(html); strings.Contains(got, "javascript:") {
		t.Errorf("sanitized render kept a script URL: %s", got)
	}
}
