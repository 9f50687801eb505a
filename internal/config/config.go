// Package config loads the renderer configuration from a YAML file plus
// environment overrides, and hot-reloads it when the file changes.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nostr-render/internal/content"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Relays RelayConfig  `yaml:"relays"`
	Lookup LookupConfig `yaml:"lookup"`
	Render RenderConfig `yaml:"render"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// RelayConfig configures the relay loader.
type RelayConfig struct {
	Defaults      []string      `yaml:"defaults"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxPerQuery   int           `yaml:"max_per_query"`
	AllowLoopback bool          `yaml:"allow_loopback"`
	// RateLimit is outbound connections per second; 0 disables throttling.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// LookupConfig bounds identity lookups during a render.
type LookupConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// RenderConfig holds the pipeline options.
type RenderConfig struct {
	ViewerURL       string         `yaml:"viewer_url"`
	Timezone        string         `yaml:"timezone"`
	LegacyVideoType bool           `yaml:"legacy_video_type"`
	Markdown        MarkdownConfig `yaml:"markdown"`
}

// MarkdownConfig selects goldmark extensions.
type MarkdownConfig struct {
	AutoLink      bool `yaml:"autolink"`
	Tables        bool `yaml:"tables"`
	Strikethrough bool `yaml:"strikethrough"`
	UnsafeHTML    bool `yaml:"unsafe_html"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	opts := content.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Relays: RelayConfig{
			Defaults: []string{
				"wss://relay.damus.io",
				"wss://nos.lol",
				"wss://relay.nostr.band",
			},
			Timeout:     2500 * time.Millisecond,
			MaxPerQuery: 6,
			RateLimit:   20,
			Burst:       10,
		},
		Lookup: LookupConfig{
			MaxConcurrent: opts.MaxConcurrentLookups,
			Timeout:       opts.LookupTimeout,
		},
		Render: RenderConfig{
			ViewerURL: opts.ViewerURL,
			Timezone:  "UTC",
			Markdown: MarkdownConfig{
				AutoLink:      opts.Markdown.AutoLink,
				Tables:        opts.Markdown.Tables,
				Strikethrough: opts.Markdown.Strikethrough,
				UnsafeHTML:    opts.Markdown.UnsafeHTML,
			},
		},
	}
}

// applyEnv overlays PORT, RENDER_RELAYS (comma separated) and RENDER_TIMEZONE.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if relays := os.Getenv("RENDER_RELAYS"); relays != "" {
		var list []string
		for _, r := range strings.Split(relays, ",") {
			if r = strings.TrimSpace(r); r != "" {
				list = append(list, r)
			}
		}
		c.Relays.Defaults = list
	}
	if tz := os.Getenv("RENDER_TIMEZONE"); tz != "" {
		c.Render.Timezone = tz
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server.port is empty", ErrInvalidConfig)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.Lookup.MaxConcurrent < 0 {
		return fmt.Errorf("%w: lookup.max_concurrent must not be negative", ErrInvalidConfig)
	}
	if c.Lookup.Timeout < 0 || c.Relays.Timeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if v := c.Render.ViewerURL; v != "" && !strings.HasPrefix(v, "https://") && !strings.HasPrefix(v, "http://") {
		return fmt.Errorf("%w: render.viewer_url %q is not an http(s) URL", ErrInvalidConfig, v)
	}
	if _, err := time.LoadLocation(c.Render.Timezone); err != nil {
		return fmt.Errorf("%w: render.timezone: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ContentOptions converts the render and lookup sections into pipeline options.
func (c *Config) ContentOptions() (content.Options, error) {
	loc, err := time.LoadLocation(c.Render.Timezone)
	if err != nil {
		return content.Options{}, fmt.Errorf("%w: render.timezone: %w", ErrInvalidConfig, err)
	}
	return content.Options{
		ViewerURL:            c.Render.ViewerURL,
		Location:             loc,
		LegacyVideoType:      c.Render.LegacyVideoType,
		MaxConcurrentLookups: c.Lookup.MaxConcurrent,
		LookupTimeout:        c.Lookup.Timeout,
		Markdown: content.MarkdownOptions{
			AutoLink:      c.Render.Markdown.AutoLink,
			Tables:        c.Render.Markdown.Tables,
			Strikethrough: c.Render.Markdown.Strikethrough,
			UnsafeHTML:    c.Render.Markdown.UnsafeHTML,
		},
	}, nil
}
