// Package nips implements the NIP-19 bech32 entity encodings used in note
// content: npub, nprofile, note, nevent and naddr.
package nips

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// NIP-19 human readable prefixes
const (
	PrefixNpub     = "npub"
	PrefixNprofile = "nprofile"
	PrefixNote     = "note"
	PrefixNevent   = "nevent"
	PrefixNaddr    = "naddr"
)

// URIScheme is the NIP-21 prefix attached to entities embedded in content.
const URIScheme = "nostr:"

// EntityType identifies which NIP-19 encoding an Entity came from.
type EntityType string

const (
	TypeNpub     EntityType = PrefixNpub
	TypeNprofile EntityType = PrefixNprofile
	TypeNote     EntityType = PrefixNote
	TypeNevent   EntityType = PrefixNevent
	TypeNaddr    EntityType = PrefixNaddr
)

// Entity is a decoded NIP-19 code. Which fields are set depends on Type:
// npub and nprofile carry PubKey, note and nevent carry EventID, naddr
// carries Kind, PubKey and Identifier.
type Entity struct {
	Type       EntityType
	PubKey     string   // 32-byte pubkey (or naddr/nevent author) as hex
	EventID    string   // 32-byte event ID as hex
	Kind       uint32   // naddr and optional nevent kind
	Identifier string   // naddr d-tag
	RelayHints []string // Optional relay URLs, never nil
}

// IsProfile reports whether the entity points at a public key rather than
// an event.
func (e Entity) IsProfile() bool {
	return e.Type == TypeNpub || e.Type == TypeNprofile
}

// TLV type constants for NIP-19
const (
	tlvTypeSpecial = 0 // event_id for nevent, pubkey for nprofile, d-tag for naddr
	tlvTypeRelay   = 1 // relay URL
	tlvTypeAuthor  = 2 // author pubkey
	tlvTypeKind    = 3 // kind
)

// Decode decodes any supported NIP-19 code (without the nostr: scheme).
func Decode(code string) (Entity, error) {
	hrp, data, err := Bech32Decode(code)
	if err != nil {
		return Entity{}, err
	}

	payload, err := Bech32ConvertBits(data, 5, 8, false)
	if err != nil {
		return Entity{}, err
	}

	switch hrp {
	case PrefixNpub:
		return decodeHex32(TypeNpub, payload)
	case PrefixNote:
		return decodeHex32(TypeNote, payload)
	case PrefixNprofile:
		return decodeNProfileTLV(payload)
	case PrefixNevent:
		return decodeNEventTLV(payload)
	case PrefixNaddr:
		return decodeNAddrTLV(payload)
	default:
		return Entity{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, hrp)
	}
}

// DecodeNote decodes a note1... bech32 string to event ID
func DecodeNote(note string) (string, error) {
	if !strings.HasPrefix(note, PrefixNote+"1") {
		return "", fmt.Errorf("%w: not a note", ErrUnknownPrefix)
	}
	e, err := Decode(note)
	if err != nil {
		return "", err
	}
	return e.EventID, nil
}

func decodeHex32(t EntityType, payload []byte) (Entity, error) {
	if len(payload) != 32 {
		return Entity{}, fmt.Errorf("%w: %s wants 32 bytes, got %d", ErrInvalidLength, t, len(payload))
	}
	e := Entity{Type: t, RelayHints: []string{}}
	if t == TypeNote {
		e.EventID = hex.EncodeToString(payload)
	} else {
		e.PubKey = hex.EncodeToString(payload)
	}
	return e, nil
}

type tlvRecord struct {
	typ   byte
	value []byte
}

// parseTLV splits a TLV payload. Truncated trailing records are ignored.
func parseTLV(data []byte) []tlvRecord {
	var records []tlvRecord
	for i := 0; i+2 <= len(data); {
		typ := data[i]
		length := int(data[i+1])
		i += 2
		if i+length > len(data) {
			break
		}
		records = append(records, tlvRecord{typ: typ, value: data[i : i+length]})
		i += length
	}
	return records
}

func decodeNProfileTLV(data []byte) (Entity, error) {
	e := Entity{Type: TypeNprofile, RelayHints: []string{}}

	for _, rec := range parseTLV(data) {
		switch rec.typ {
		case tlvTypeSpecial: // pubkey
			if len(rec.value) == 32 {
				e.PubKey = hex.EncodeToString(rec.value)
			}
		case tlvTypeRelay:
			e.RelayHints = append(e.RelayHints, string(rec.value))
		}
	}

	if e.PubKey == "" {
		return Entity{}, fmt.Errorf("%w: nprofile pubkey", ErrMissingField)
	}
	return e, nil
}

func decodeNEventTLV(data []byte) (Entity, error) {
	e := Entity{Type: TypeNevent, RelayHints: []string{}}

	for _, rec := range parseTLV(data) {
		switch rec.typ {
		case tlvTypeSpecial: // event_id
			if len(rec.value) == 32 {
				e.EventID = hex.EncodeToString(rec.value)
			}
		case tlvTypeRelay:
			e.RelayHints = append(e.RelayHints, string(rec.value))
		case tlvTypeAuthor:
			if len(rec.value) == 32 {
				e.PubKey = hex.EncodeToString(rec.value)
			}
		case tlvTypeKind:
			if len(rec.value) == 4 {
				e.Kind = binary.BigEndian.Uint32(rec.value)
			}
		}
	}

	if e.EventID == "" {
		return Entity{}, fmt.Errorf("%w: nevent event id", ErrMissingField)
	}
	return e, nil
}

func decodeNAddrTLV(data []byte) (Entity, error) {
	e := Entity{Type: TypeNaddr, RelayHints: []string{}}
	hasKind := false

	for _, rec := range parseTLV(data) {
		switch rec.typ {
		case tlvTypeSpecial: // d-tag
			e.Identifier = string(rec.value)
		case tlvTypeRelay:
			e.RelayHints = append(e.RelayHints, string(rec.value))
		case tlvTypeAuthor:
			if len(rec.value) == 32 {
				e.PubKey = hex.EncodeToString(rec.value)
			}
		case tlvTypeKind:
			if len(rec.value) == 4 {
				e.Kind = binary.BigEndian.Uint32(rec.value)
				hasKind = true
			}
		}
	}

	if !hasKind || e.PubKey == "" {
		return Entity{}, fmt.Errorf("%w: naddr kind/author", ErrMissingField)
	}
	return e, nil
}

func appendTLV(buf []byte, typ byte, value []byte) []byte {
	buf = append(buf, typ, byte(len(value)))
	return append(buf, value...)
}

func appendRelays(buf []byte, relays []string) []byte {
	for _, r := range relays {
		buf = appendTLV(buf, tlvTypeRelay, []byte(r))
	}
	return buf
}

func hex32(value string) ([]byte, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLength, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidLength, len(raw))
	}
	return raw, nil
}

func encodeTLV(hrp string, tlv []byte) (string, error) {
	data5bit, err := Bech32ConvertBits(tlv, 8, 5, true)
	if err != nil {
		return "", err
	}
	return Bech32Encode(hrp, data5bit)
}

// EncodeNProfile encodes an nprofile from a hex pubkey and relay hints
func EncodeNProfile(pubkeyHex string, relays []string) (string, error) {
	pk, err := hex32(pubkeyHex)
	if err != nil {
		return "", err
	}
	tlv := appendTLV(nil, tlvTypeSpecial, pk)
	return encodeTLV(PrefixNprofile, appendRelays(tlv, relays))
}

// EncodeNEvent encodes a nevent from a hex event id, optional author and
// relay hints
func EncodeNEvent(eventIDHex, authorHex string, relays []string) (string, error) {
	id, err := hex32(eventIDHex)
	if err != nil {
		return "", err
	}
	tlv := appendTLV(nil, tlvTypeSpecial, id)
	tlv = appendRelays(tlv, relays)
	if authorHex != "" {
		author, err := hex32(authorHex)
		if err != nil {
			return "", err
		}
		tlv = appendTLV(tlv, tlvTypeAuthor, author)
	}
	return encodeTLV(PrefixNevent, tlv)
}

// EncodeNAddr encodes an naddr from kind, pubkey (hex), and d-tag
func EncodeNAddr(kind uint32, pubkeyHex string, dTag string) (string, error) {
	pk, err := hex32(pubkeyHex)
	if err != nil {
		return "", err
	}

	// d-tag first, then author, then kind
	tlv := appendTLV(nil, tlvTypeSpecial, []byte(dTag))
	tlv = appendTLV(tlv, tlvTypeAuthor, pk)

	kindBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(kindBytes, kind)
	tlv = appendTLV(tlv, tlvTypeKind, kindBytes)

	return encodeTLV(PrefixNaddr, tlv)
}
