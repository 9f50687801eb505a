package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
	_ "time/tzdata"
)

// clearEnv blanks the overrides so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "RENDER_RELAYS", "RENDER_TIMEZONE"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "render.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, t.TempDir(), `
server:
  port: "9000"
relays:
  defaults: ["wss://relay.example.com"]
  timeout: 4s
lookup:
  max_concurrent: 4
  timeout: 750ms
render:
  timezone: Europe/Berlin
  legacy_video_type: true
  markdown:
    unsafe_html: false
`)

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()

	if cfg.Server.Port != "9000" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Relays.Defaults, []string{"wss://relay.example.com"}) {
		t.Errorf("Relays.Defaults = %v", cfg.Relays.Defaults)
	}
	if cfg.Relays.Timeout != 4*time.Second || cfg.Lookup.Timeout != 750*time.Millisecond {
		t.Errorf("timeouts = %v / %v", cfg.Relays.Timeout, cfg.Lookup.Timeout)
	}
	if cfg.Lookup.MaxConcurrent != 4 || !cfg.Render.LegacyVideoType {
		t.Errorf("lookup/render not applied: %+v %+v", cfg.Lookup, cfg.Render)
	}
	if cfg.Render.Markdown.UnsafeHTML {
		t.Error("unsafe_html should be disabled")
	}
	// untouched keys keep their defaults
	if !cfg.Render.Markdown.Tables || cfg.Server.MaxBodyBytes != Default().Server.MaxBodyBytes {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadJSONFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, t.TempDir(), `{"server": {"port": "7000"}, "render": {"viewer_url": "https://example.com/"}}`)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if l.Config().Server.Port != "7000" || l.Config().Render.ViewerURL != "https://example.com/" {
		t.Errorf("JSON config not applied: %+v", l.Config())
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	l, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if !reflect.DeepEqual(l.Config(), Default()) {
		t.Errorf("missing file should yield defaults, got %+v", l.Config())
	}

	l, err = NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader(\"\"): %v", err)
	}
	if !reflect.DeepEqual(l.Config(), Default()) {
		t.Errorf("empty path should yield defaults, got %+v", l.Config())
	}
}

func TestLoadInvalidFile(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"bad yaml", "server: [port", false},
		{"bad timezone", "render:\n  timezone: Mars/Olympus", true},
		{"bad viewer", "render:\n  viewer_url: ftp://x", true},
		{"negative fan-out", "lookup:\n  max_concurrent: -1", true},
		{"empty port", "server:\n  port: \"\"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, t.TempDir(), tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalidConfig) = %v, want %v (err: %v)", got, tt.invalid, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("RENDER_RELAYS", " wss://a.example.com , ,wss://b.example.com")
	t.Setenv("RENDER_TIMEZONE", "Asia/Tokyo")

	path := writeConfig(t, t.TempDir(), "server:\n  port: \"9000\"\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()

	if cfg.Server.Port != "3000" {
		t.Errorf("PORT should win over the file, got %q", cfg.Server.Port)
	}
	if want := []string{"wss://a.example.com", "wss://b.example.com"}; !reflect.DeepEqual(cfg.Relays.Defaults, want) {
		t.Errorf("Relays.Defaults = %v, want %v", cfg.Relays.Defaults, want)
	}
	if cfg.Render.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q", cfg.Render.Timezone)
	}
}

func TestContentOptions(t *testing.T) {
	cfg := Default()
	cfg.Render.Timezone = "Asia/Tokyo"
	cfg.Render.LegacyVideoType = true
	cfg.Lookup.MaxConcurrent = 3

	opts, err := cfg.ContentOptions()
	if err != nil {
		t.Fatalf("ContentOptions: %v", err)
	}
	if opts.Location.String() != "Asia/Tokyo" || !opts.LegacyVideoType || opts.MaxConcurrentLookups != 3 {
		t.Errorf("ContentOptions = %+v", opts)
	}
	if opts.ViewerURL != cfg.Render.ViewerURL || opts.LookupTimeout != cfg.Lookup.Timeout {
		t.Errorf("ContentOptions = %+v", opts)
	}

	cfg.Render.Timezone = "Nowhere/Special"
	if _, err := cfg.ContentOptions(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestReloadNotifies(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := writeConfig(t, dir, "server:\n  port: \"9000\"\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	var got *Config
	l.OnChange(func(c *Config) { got = c })

	writeConfig(t, dir, "server:\n  port: \"9001\"\n")
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got == nil || got.Server.Port != "9001" || l.Config().Server.Port != "9001" {
		t.Errorf("reload not propagated: callback=%+v current=%+v", got, l.Config())
	}

	writeConfig(t, dir, "server: [broken")
	if _, err := l.Reload(); err == nil {
		t.Error("expected reload of a broken file to fail")
	}
	if l.Config().Server.Port != "9001" {
		t.Errorf("failed reload replaced the config: %+v", l.Config())
	}
}

func TestWatch(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := writeConfig(t, dir, "server:\n  port: \"9000\"\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	changed := make(chan string, 8)
	l.OnChange(func(c *Config) { changed <- c.Server.Port })

	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	writeConfig(t, dir, "server:\n  port: \"9100\"\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case port := <-changed:
			if port == "9100" {
				return
			}
		case <-deadline:
			t.Fatal("config change not picked up")
		}
	}
}

func TestWatchWithoutPath(t *testing.T) {
	clearEnv(t)

	l, err := NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	stop()
	stop()
}
