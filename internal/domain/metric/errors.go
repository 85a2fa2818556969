package metric

import "errors"

// Sentinel kinds for contract validation errors.
var (
	ErrValidation = errors.New("validation failed")
)
