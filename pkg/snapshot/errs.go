package snapshot

import "errors"

// ErrEnumeratorPanic wraps a panic raised while listing processes.
var ErrEnumeratorPanic = errors.New("snapshot: enumerator panicked")
