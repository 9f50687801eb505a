// Package relay loads profiles and events from Nostr relays over websockets.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"nostr-render/internal/nips"
	"nostr-render/internal/nostr"
	"nostr-render/internal/types"
	"nostr-render/internal/util"
)

const (
	defaultTimeout   = 2500 * time.Millisecond
	defaultMaxRelays = 6
)

// Loader queries relays for profiles and single events. Concurrent requests
// for the same key share one round trip. It keeps nothing between calls.
type Loader struct {
	relays        []string
	timeout       time.Duration
	maxRelays     int
	allowLoopback bool
	limiter       *rate.Limiter
	dialer        *websocket.Dialer
	logger        *slog.Logger

	profiles singleflight.Group
	events   singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithDefaultRelays sets the relays queried in addition to any hints.
func WithDefaultRelays(relays []string) Option {
	return func(l *Loader) { l.relays = relays }
}

// WithTimeout bounds each query across all relays.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithMaxRelays caps how many relays one query fans out to.
func WithMaxRelays(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxRelays = n
		}
	}
}

// WithAllowLoopback accepts localhost relays. Used for development and tests.
func WithAllowLoopback(allow bool) Option {
	return func(l *Loader) { l.allowLoopback = allow }
}

// WithRateLimit throttles outbound relay connections. A zero limit disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(l *Loader) {
		if perSecond <= 0 {
			l.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader. Default relays are normalized once here.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		timeout:   defaultTimeout,
		maxRelays: defaultMaxRelays,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 3 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	// hostnames are checked again once resolved
	l.dialer.NetDialContext = nostr.SafeDialContext(&net.Dialer{Timeout: 5 * time.Second}, l.allowLoopback)
	l.relays = nostr.NormalizeRelayURLs(l.relays, l.allowLoopback)
	return l
}

// DefaultRelays returns the normalized default relay list.
func (l *Loader) DefaultRelays() []string {
	return append([]string(nil), l.relays...)
}

// relaysFor merges hints (first) with the defaults, drops anything unsafe and
// caps the result.
func (l *Loader) relaysFor(hints []string) []string {
	merged := util.MergeUnique(nostr.NormalizeRelayURLs(hints, l.allowLoopback), l.relays)
	return util.LimitSlice(merged, l.maxRelays)
}

type profileMetadata struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Picture     string `json:"picture"`
	About       string `json:"about"`
	Nip05       string `json:"nip05"`
}

// LoadProfile fetches the newest kind 0 event for pubkey from the hinted and
// default relays and parses its content.
func (l *Loader) LoadProfile(ctx context.Context, pubkey string, hints []string) (*types.Profile, error) {
	relays := l.relaysFor(hints)
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}

	key := pubkey + ":" + strings.Join(util.SortedCopy(relays), "|")
	v, err := l.do(ctx, &l.profiles, key, func(ctx context.Context) (interface{}, error) {
		return l.loadProfile(ctx, pubkey, relays)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Profile), nil
}

func (l *Loader) loadProfile(ctx context.Context, pubkey string, relays []string) (*types.Profile, error) {
	// every relay's answer is considered: the newest event may not parse
	events, _ := l.collect(ctx, relays, types.Filter{
		Authors: []string{pubkey},
		Kinds:   []int{types.KindProfile},
		Limit:   1,
	})

	for _, evt := range events {
		if evt.PubKey != pubkey || evt.Kind != types.KindProfile {
			continue
		}

		var meta profileMetadata
		if err := json.Unmarshal([]byte(evt.Content), &meta); err != nil {
			l.logger.Debug("profile content is not JSON", "pubkey", nostr.ShortID(pubkey), "error", err)
			continue
		}

		npub, _ := nips.EncodePubkey(pubkey)
		return &types.Profile{
			PubKey:      pubkey,
			Name:        meta.Name,
			DisplayName: meta.DisplayName,
			Picture:     meta.Picture,
			About:       meta.About,
			Nip05:       meta.Nip05,
			RelayHints:  relays,
			Npub:        npub,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, nostr.ShortID(pubkey))
}

// FetchEvent fetches one event by id. Hinted relays are tried alongside the
// defaults.
func (l *Loader) FetchEvent(ctx context.Context, hints []string, id string) (*types.Event, error) {
	relays := l.relaysFor(hints)
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}

	key := id + ":" + strings.Join(util.SortedCopy(relays), "|")
	v, err := l.do(ctx, &l.events, key, func(ctx context.Context) (interface{}, error) {
		events, _ := l.Query(ctx, relays, types.Filter{IDs: []string{id}, Limit: 1})
		for i := range events {
			if events[i].ID == id {
				return &events[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, nostr.ShortID(id))
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Event), nil
}

// do runs fn once per key across concurrent callers. The shared call is
// detached from the first caller's cancellation (Query still applies the
// loader timeout); each caller returns as soon as its own ctx is done.
func (l *Loader) do(ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			l.logger.Debug("singleflight: shared relay fetch", "key", nostr.ShortID(key))
		}
		return res.Val, res.Err
	}
}

// sortEvents orders newest first, id descending on ties.
func sortEvents(events []types.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID > events[j].ID
	})
}
