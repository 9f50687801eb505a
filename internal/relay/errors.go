package relay

import "errors"

var (
	// ErrProfileNotFound is returned when no relay holds a valid kind 0 for the pubkey.
	ErrProfileNotFound = errors.New("profile not found on any relay")

	// ErrEventNotFound is returned when no relay holds a valid event with the id.
	ErrEventNotFound = errors.New("event not found on any relay")

	// ErrNoRelays is returned when neither the hints nor the defaults leave a usable relay.
	ErrNoRelays = errors.New("no usable relays")
)
