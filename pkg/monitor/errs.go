package monitor

import "errors"

// ErrInvalidInterval is returned by SetInterval for non-positive durations.
var ErrInvalidInterval = errors.New("monitor: interval must be positive")
