package analyzer

import "errors"

// ErrUnknownMetric is returned by Registry.Build when an enabled metric name
// has no registered factory. Configuration typos surface at startup instead
// of being silently dropped at dispatch time.
var ErrUnknownMetric = errors.New("unknown metric name")
