package config

import "errors"

var (
	// ErrNotFound is returned by LoadConfig when the given file does not exist.
	ErrNotFound = errors.New("config: file not found")

	// ErrInvalid wraps every Validate failure.
	ErrInvalid = errors.New("config: invalid")
)
