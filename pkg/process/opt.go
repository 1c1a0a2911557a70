package process

import "encoding/json"

// Opt is a value that may be absent. The zero Opt is absent, which keeps
// "the source did not report this" apart from "the source reported zero".
type Opt[T any] struct {
	v  T
	ok bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

// None returns an absent Opt.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

// Valid reports whether the value is present.
func (o Opt[T]) Valid() bool { return o.ok }

// Value returns the value, or the zero value of T when absent.
func (o Opt[T]) Value() T { return o.v }

// OrElse returns the value when present and d otherwise.
func (o Opt[T]) OrElse(d T) T {
	if o.ok {
		return o.v
	}
	return d
}

// MarshalJSON encodes an absent value as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON treats null as absent.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
