package content

import "errors"

var (
	// ErrRender wraps failures of the markdown engine. It is the only error a
	// render can return.
	ErrRender = errors.New("markdown render failed")

	// ErrUnsupportedEntity is logged when an event pointer (note, nevent,
	// naddr) is handed to a profile lookup.
	ErrUnsupportedEntity = errors.New("entity does not reference a profile")
)
