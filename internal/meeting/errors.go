package meeting

import "errors"

// Sentinel errors surfaced by the controller.
var (
	// ErrEmptySession means finalize was requested for a session that has no
	// stored items. Nothing is persisted when this is returned.
	ErrEmptySession = errors.New("no session items found")
)
