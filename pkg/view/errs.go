package view

import "errors"

// ErrUnknown is returned for unrecognized category or sort key names.
var ErrUnknown = errors.New("view: unknown value")
