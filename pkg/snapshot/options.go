package snapshot

import (
	"time"

	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/phuslu/log"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger replaces the default component logger.
func WithLogger(l log.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithObserver reports build events to o.
func WithObserver(o Observer) Option {
	return func(b *Builder) {
		if o != nil {
			b.obs = o
		}
	}
}

// WithConnCounter enables the per-process connection count.
func WithConnCounter(c probe.ConnCounter) Option {
	return func(b *Builder) { b.conns = c }
}

// WithEnergy runs a after each completed build.
func WithEnergy(a Annotator) Option {
	return func(b *Builder) { b.energy = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}
