package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"nostr-render/internal/metrics"
	"nostr-render/internal/nostr"
	"nostr-render/internal/types"
)

// Query sends filter to every relay concurrently and collects valid events
// until each relay has sent EOSE, the loader timeout passes or ctx is done.
// Events are deduplicated by id, sorted newest first and cut to filter.Limit;
// the bool reports whether every relay reached EOSE.
func (l *Loader) Query(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, bool) {
	events, allEOSE := l.collect(ctx, relays, filter)
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, allEOSE
}

// collect is Query without the final cut. The limit is still sent to each
// relay.
func (l *Loader) collect(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, bool) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var wg sync.WaitGroup
	eventChan := make(chan types.Event, 64)
	eoseChan := make(chan struct{}, len(relays))

	for _, relayURL := range relays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.queryRelay(ctx, relayURL, filter, eventChan, eoseChan)
		}()
	}

	go func() {
		wg.Wait()
		close(eventChan)
		close(eoseChan)
	}()

	seen := make(map[string]bool)
	var events []types.Event
	for evt := range eventChan {
		if seen[evt.ID] {
			continue
		}
		seen[evt.ID] = true
		events = append(events, evt)
	}

	eoseCount := 0
	for range eoseChan {
		eoseCount++
	}

	sortEvents(events)
	return events, eoseCount == len(relays)
}

// queryRelay runs one REQ against one relay. Invalid events are dropped.
func (l *Loader) queryRelay(ctx context.Context, relayURL string, filter types.Filter, eventChan chan<- types.Event, eoseChan chan<- struct{}) {
	log := l.logger.With("relay", relayURL)

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			metrics.RelayQueries.WithLabelValues(metrics.RelayTimeout).Inc()
			return
		}
	}

	conn, _, err := l.dialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		log.Debug("relay dial failed", "error", err)
		metrics.RelayQueries.WithLabelValues(outcome(ctx, err)).Inc()
		return
	}
	defer conn.Close()

	// unblock ReadJSON when the query is cancelled
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	subID := "render-" + uuid.NewString()[:8]
	if err := conn.WriteJSON([]interface{}{"REQ", subID, filter.ToMap()}); err != nil {
		log.Debug("relay REQ failed", "error", err)
		metrics.RelayQueries.WithLabelValues(outcome(ctx, err)).Inc()
		return
	}

	for {
		var msg []json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			metrics.RelayQueries.WithLabelValues(outcome(ctx, err)).Inc()
			return
		}
		if len(msg) < 2 {
			continue
		}

		var msgType string
		if err := json.Unmarshal(msg[0], &msgType); err != nil {
			continue
		}

		switch msgType {
		case "EVENT":
			if len(msg) < 3 {
				continue
			}
			evt, ok := nostr.ParseEvent(msg[2])
			if !ok {
				metrics.RelayEventsDropped.Inc()
				continue
			}
			select {
			case eventChan <- evt:
			case <-ctx.Done():
				return
			}
		case "EOSE":
			metrics.RelayQueries.WithLabelValues(metrics.RelayEOSE).Inc()
			_ = conn.WriteJSON([]interface{}{"CLOSE", subID})
			eoseChan <- struct{}{}
			return
		case "CLOSED", "NOTICE":
			var reason string
			_ = json.Unmarshal(msg[len(msg)-1], &reason)
			log.Debug("relay message", "type", msgType, "reason", reason)
			if msgType == "CLOSED" {
				metrics.RelayQueries.WithLabelValues(metrics.RelayError).Inc()
				return
			}
		}
	}
}

func outcome(ctx context.Context, err error) string {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return metrics.RelayTimeout
	}
	return metrics.RelayError
}
