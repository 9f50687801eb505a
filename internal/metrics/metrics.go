// Package metrics exposes the renderer's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results
const (
	LookupResolved    = "resolved"
	LookupUnsupported = "unsupported"
	LookupDecodeError = "decode_error"
	LookupFailed      = "failed"
)

// Relay query outcomes
const (
	RelayEOSE    = "eose"
	RelayTimeout = "timeout"
	RelayError   = "error"
)

var (
	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_render_http_requests_total",
		Help: "Total HTTP requests, labelled by status class.",
	}, []string{"class"})

	// Pipeline metrics
	ProfileLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_render_profile_lookups_total",
		Help: "Identity lookups performed while substituting mentions, labelled by result.",
	}, []string{"result"})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nostr_render_render_duration_ms",
		Help:    "End-to-end render latency in milliseconds, identity lookups included.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	RenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_render_render_failures_total",
		Help: "Renders that failed in the markdown engine.",
	})

	// Relay metrics
	RelayQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_render_relay_queries_total",
		Help: "Per-relay REQ outcomes, labelled by outcome.",
	}, []string{"outcome"})

	RelayEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_render_relay_events_dropped_total",
		Help: "Events received from relays that failed id or signature validation.",
	})
)

// StatusClass maps an HTTP status code to its "2xx"-style label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
