package content

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"nostr-render/internal/metrics"
	"nostr-render/internal/nips"
	"nostr-render/internal/nostr"
	"nostr-render/internal/types"
)

// rawPubkeyLen is the length of a hex pubkey accepted when bech32 decoding fails.
const rawPubkeyLen = 64

// Prefixed references that can resolve to a profile.
var identityRefRegex = regexp.MustCompile(`nostr:((?:npub1|nprofile1)[a-z0-9]+)`)

// ProfileLoader resolves a pubkey to its profile metadata. relays are hints
// from the reference itself and may be empty. Implementations may block on
// I/O and should honor ctx.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, pubkey string, relays []string) (*types.Profile, error)
}

// ProfileLoaderFunc adapts a function to ProfileLoader.
type ProfileLoaderFunc func(ctx context.Context, pubkey string, relays []string) (*types.Profile, error)

// LoadProfile calls f.
func (f ProfileLoaderFunc) LoadProfile(ctx context.Context, pubkey string, relays []string) (*types.Profile, error) {
	return f(ctx, pubkey, relays)
}

// DecodeFunc decodes an identity code without its nostr: scheme.
type DecodeFunc func(code string) (nips.Entity, error)

// Resolver turns nostr:npub/nprofile references into display names.
type Resolver struct {
	Loader ProfileLoader
	// Decode defaults to nips.Decode.
	Decode DecodeFunc
	// MaxConcurrent caps lookups in flight per content string; 0 is unbounded.
	MaxConcurrent int
	// Timeout bounds each lookup; 0 disables it.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewResolver builds a Resolver from pipeline options.
func NewResolver(loader ProfileLoader, opts Options) *Resolver {
	return &Resolver{
		Loader:        loader,
		Decode:        nips.Decode,
		MaxConcurrent: opts.MaxConcurrentLookups,
		Timeout:       opts.LookupTimeout,
	}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Resolver) decode(code string) (nips.Entity, error) {
	if r.Decode != nil {
		return r.Decode(code)
	}
	return nips.Decode(code)
}

// LookupProfile decodes code and asks the loader for the profile. It never
// fails: decode errors, event pointers, loader errors and timeouts all come
// back as nil.
func (r *Resolver) LookupProfile(ctx context.Context, code string) *types.Profile {
	log := r.logger()

	var pubkey string
	relays := []string{}

	entity, err := r.decode(code)
	switch {
	case err == nil && entity.IsProfile():
		pubkey = entity.PubKey
		if entity.RelayHints != nil {
			relays = entity.RelayHints
		}
	case err == nil:
		log.Debug("identity lookup skipped", "code", code, "type", entity.Type, "error", ErrUnsupportedEntity)
		metrics.ProfileLookups.WithLabelValues(metrics.LookupUnsupported).Inc()
		return nil
	case len(code) == rawPubkeyLen:
		pubkey = code
	default:
		log.Debug("identity decode failed", "code", code, "error", err)
		metrics.ProfileLookups.WithLabelValues(metrics.LookupDecodeError).Inc()
		return nil
	}

	if r.Loader == nil {
		metrics.ProfileLookups.WithLabelValues(metrics.LookupFailed).Inc()
		return nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	profile, err := r.Loader.LoadProfile(ctx, pubkey, relays)
	if err == nil && profile == nil {
		err = errors.New("loader returned no profile")
	}
	if err != nil {
		log.Warn("profile lookup failed", "pubkey", nostr.ShortID(pubkey), "relays", len(relays), "error", err)
		metrics.ProfileLookups.WithLabelValues(metrics.LookupFailed).Inc()
		return nil
	}

	metrics.ProfileLookups.WithLabelValues(metrics.LookupResolved).Inc()
	return profile
}

// SubstituteIdentities replaces every nostr:npub/nprofile reference whose
// profile resolves with [name](reference). Distinct codes are looked up once,
// concurrently; the call returns after every lookup has settled. Unresolved
// references are left as they were, so the stage never fails.
func (r *Resolver) SubstituteIdentities(ctx context.Context, content string) string {
	matches := identityRefRegex.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	slots := make(map[string]int, len(matches))
	var codes []string
	for _, m := range matches {
		code := content[m[2]:m[3]]
		if _, ok := slots[code]; !ok {
			slots[code] = len(codes)
			codes = append(codes, code)
		}
	}

	// each goroutine owns one slot
	profiles := make([]*types.Profile, len(codes))
	var g errgroup.Group
	if r.MaxConcurrent > 0 {
		g.SetLimit(r.MaxConcurrent)
	}
	for i, code := range codes {
		g.Go(func() error {
			profiles[i] = r.LookupProfile(ctx, code)
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		ref := content[m[0]:m[1]]
		b.WriteString(content[last:m[0]])
		if p := profiles[slots[content[m[2]:m[3]]]]; p != nil {
			b.WriteString("[" + escapeLinkText(p.ShortName()) + "](" + ref + ")")
		} else {
			b.WriteString(ref)
		}
		last = m[1]
	}
	b.WriteString(content[last:])
	return b.String()
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeLinkText(s string) string {
	return linkTextEscaper.Replace(s)
}
