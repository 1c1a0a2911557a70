package probe

import "errors"

var (
	// ErrInvalidPID is returned by Terminate for pids that cannot name a
	// single process (0 and negatives address process groups).
	ErrInvalidPID = errors.New("probe: invalid pid")

	// ErrUnknownResourceSource is returned for a resource source other than
	// "native" or "ps".
	ErrUnknownResourceSource = errors.New("probe: unknown resource source")
)
