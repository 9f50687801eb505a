package main

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nostr-render/internal/config"
	"nostr-render/internal/content"
	"nostr-render/internal/relay"
	"nostr-render/internal/types"
)

// relayClient is what the host needs from the relay layer: profile lookups
// for the renderer and single-event fetches for the page route.
type relayClient interface {
	content.ProfileLoader
	FetchEvent(ctx context.Context, hints []string, id string) (*types.Event, error)
}

// newRelayClient builds the production client from config.
func newRelayClient(cfg *config.Config) relayClient {
	return relay.NewLoader(
		relay.WithDefaultRelays(cfg.Relays.Defaults),
		relay.WithTimeout(cfg.Relays.Timeout),
		relay.WithMaxRelays(cfg.Relays.MaxPerQuery),
		relay.WithAllowLoopback(cfg.Relays.AllowLoopback),
		relay.WithRateLimit(cfg.Relays.RateLimit, cfg.Relays.Burst),
	)
}

// serverState is everything derived from one config snapshot. It is swapped
// as a whole when the config reloads.
type serverState struct {
	cfg      *config.Config
	client   relayClient
	renderer *content.Renderer
}

// Server is the HTTP host around the rendering pipeline.
type Server struct {
	state     atomic.Pointer[serverState]
	newClient func(*config.Config) relayClient
	policy    *bluemonday.Policy
}

// NewServer builds a Server for cfg. newClient may be nil to use relays.
func NewServer(cfg *config.Config, newClient func(*config.Config) relayClient) (*Server, error) {
	if newClient == nil {
		newClient = newRelayClient
	}
	s := &Server{newClient: newClient, policy: content.NewSanitizePolicy()}
	if err := s.Apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply rebuilds the relay client and renderer from cfg and swaps them in.
// Requests already running finish on the previous state.
func (s *Server) Apply(cfg *config.Config) error {
	opts, err := cfg.ContentOptions()
	if err != nil {
		return err
	}
	client := s.newClient(cfg)
	s.state.Store(&serverState{
		cfg:      cfg,
		client:   client,
		renderer: content.NewRenderer(client, nil, opts),
	})
	slog.Info("render config applied",
		"relays", len(cfg.Relays.Defaults),
		"timezone", cfg.Render.Timezone,
		"max_concurrent_lookups", cfg.Lookup.MaxConcurrent)
	return nil
}

func (s *Server) current() *serverState {
	return s.state.Load()
}

func (s *Server) maxBodyBytes() int64 {
	return s.current().cfg.Server.MaxBodyBytes
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /render", securityHeaders(limitBody(s.renderHandler, s.maxBodyBytes)))
	mux.HandleFunc("GET /html/event/{ref}", securityHeaders(s.eventPageHandler))
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return RequestLoggingMiddleware(mux)
}
