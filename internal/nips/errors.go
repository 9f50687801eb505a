package nips

import "errors"

// Decoding errors. All of them mean the input is not a usable NIP-19 code.
var (
	ErrInvalidBech32   = errors.New("invalid bech32 string")
	ErrInvalidChecksum = errors.New("invalid bech32 checksum")
	ErrUnknownPrefix   = errors.New("unknown NIP-19 prefix")
	ErrInvalidLength   = errors.New("invalid NIP-19 payload length")
	ErrMissingField    = errors.New("NIP-19 entity missing required field")
)
