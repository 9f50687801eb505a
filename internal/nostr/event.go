// Package nostr holds protocol-level checks applied to events received from
// relays before anything downstream trusts them.
package nostr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"nostr-render/internal/types"
)

// ComputeEventID returns the NIP-01 id: sha256 of
// [0, pubkey, created_at, kind, tags, content] serialized without HTML escaping.
func ComputeEventID(evt *types.Event) string {
	tags := evt.Tags
	if tags == nil {
		tags = [][]string{}
	}
	serialized := []interface{}{0, evt.PubKey, evt.CreatedAt, evt.Kind, tags, evt.Content}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(serialized); err != nil {
		return ""
	}

	hash := sha256.Sum256(unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))))
	return hex.EncodeToString(hash[:])
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes encoding/json
// always emits back into raw characters, as NIP-01 serializes them. Escaped
// backslashes are skipped so a literal "\\u2028" in content is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if rest := b[i:]; bytes.HasPrefix(rest, []byte(`\u2028`)) || bytes.HasPrefix(rest, []byte(`\u2029`)) {
			if rest[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// ValidateEventSignature verifies Schnorr signature for a Nostr event
func ValidateEventSignature(evt *types.Event) bool {
	if len(evt.Sig) != 128 || len(evt.PubKey) != 64 {
		return false
	}

	sigBytes, err := hex.DecodeString(evt.Sig)
	if err != nil {
		return false
	}
	pubKeyBytes, err := hex.DecodeString(evt.PubKey)
	if err != nil {
		return false
	}
	idBytes, err := hex.DecodeString(evt.ID)
	if err != nil {
		return false
	}

	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}
	pubKey, err := schnorr.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	return sig.Verify(idBytes, pubKey)
}

// ValidateEvent checks that the id matches the content and the signature
// matches the id.
func ValidateEvent(evt *types.Event) bool {
	if evt.ID == "" || ComputeEventID(evt) != evt.ID {
		slog.Debug("event id mismatch", "event_id", ShortID(evt.ID))
		return false
	}
	if !ValidateEventSignature(evt) {
		slog.Warn("event signature validation failed", "event_id", ShortID(evt.ID))
		return false
	}
	return true
}

// ParseEvent decodes the third element of an EVENT message and validates it.
func ParseEvent(raw json.RawMessage) (types.Event, bool) {
	var evt types.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return types.Event{}, false
	}
	if !ValidateEvent(&evt) {
		return types.Event{}, false
	}
	return evt, true
}

// ShortID truncates ID/pubkey to 12 chars for logging
func ShortID(id string) string {
	if len(id) >= 12 {
		return id[:12]
	}
	return id
}
