package process

import "errors"

var (
	// ErrEnumeration marks a snapshot whose process list could not be read at
	// all. Such a snapshot has no records and means "scan failed", not
	// "no processes".
	ErrEnumeration = errors.New("process: enumeration failed")

	// ErrNotFound is returned when a pid is not part of a snapshot.
	ErrNotFound = errors.New("process: pid not in snapshot")
)
