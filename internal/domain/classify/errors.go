package classify

import "errors"

// Sentinel kinds for classifier errors.
var (
	// ErrNoSignal means no sampled frame produced a usable decision.
	ErrNoSignal = errors.New("no usable frames in signal")
)
