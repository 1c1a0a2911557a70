package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ja7ad/procwatch/internal/logger"
	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/looplab/fsm"
	"github.com/phuslu/log"
)

const (
	StateStopped = "stopped"
	StateRunning = "running"

	eStart = "start"
	eStop  = "stop"

	DefaultInterval = 2 * time.Second
)

// Presets are the refresh intervals offered to users.
var Presets = []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}

// Builder produces one snapshot per call. *snapshot.Builder implements it.
type Builder interface {
	Build(ctx context.Context) process.Snapshot
}

// call is one build shared by everyone who asked for it while it ran.
type call struct {
	done chan struct{}
	snap process.Snapshot
}

// Monitor rebuilds snapshots on an interval and publishes each one.
//
// The loop and on-demand Refresh calls share one builder and never run two
// builds at once: a caller arriving during a build waits for it and gets
// its result. Current may be read from any goroutine.
type Monitor struct {
	b      Builder
	log    log.Logger
	kill   func(pid int32) error
	onSnap func(process.Snapshot)

	fsm *fsm.FSM

	mu     sync.Mutex // serializes Start/Stop and guards the loop handle
	cancel context.CancelFunc
	done   chan struct{}
	gen    uint64

	interval atomic.Int64
	current  atomic.Pointer[process.Snapshot]

	buildMu  sync.Mutex
	inflight *call
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the initial refresh interval. Non-positive values are
// ignored.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval.Store(int64(d))
		}
	}
}

// WithLogger replaces the default component logger.
func WithLogger(l log.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// OnSnapshot registers fn to receive every published snapshot. It runs on
// the building goroutine, so it should return quickly.
func OnSnapshot(fn func(process.Snapshot)) Option {
	return func(m *Monitor) { m.onSnap = fn }
}

// WithKiller replaces probe.Terminate.
func WithKiller(kill func(pid int32) error) Option {
	return func(m *Monitor) {
		if kill != nil {
			m.kill = kill
		}
	}
}

// New returns a stopped monitor over b.
func New(b Builder, opts ...Option) *Monitor {
	m := &Monitor{
		b:    b,
		log:  logger.New("monitor"),
		kill: probe.Terminate,
	}
	m.interval.Store(int64(DefaultInterval))
	for _, o := range opts {
		o(m)
	}

	m.fsm = fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{Name: eStart, Src: []string{StateStopped}, Dst: StateRunning},
			{Name: eStop, Src: []string{StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.log.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("Monitor state changed")
			},
		},
	)
	return m
}

// Start begins the refresh loop and reports whether it did. Starting a
// running monitor is a no-op that returns false. The loop ends on Stop or
// when ctx is done; either way the monitor returns to stopped.
func (m *Monitor) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), eStart); err != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.gen++
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(loopCtx, m.gen, m.done)

	m.log.Info().Dur("interval", m.Interval()).Msg("Monitor started")
	return true
}

// Stop ends the refresh loop. Stopping a stopped monitor is a no-op. Stop
// does not wait for an in-flight build; its result is discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), eStop); err != nil {
		return
	}
	m.cancel()
	m.cancel, m.done = nil, nil
	m.log.Info().Msg("Monitor stopped")
}

// IsRunning reports whether the refresh loop is active.
func (m *Monitor) IsRunning() bool { return m.fsm.Current() == StateRunning }

// State returns StateStopped or StateRunning.
func (m *Monitor) State() string { return m.fsm.Current() }

// Interval returns the refresh interval.
func (m *Monitor) Interval() time.Duration { return time.Duration(m.interval.Load()) }

// SetInterval changes the refresh interval from the next tick on.
func (m *Monitor) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, d)
	}
	m.interval.Store(int64(d))
	return nil
}

// Current returns the last published snapshot, or the zero Snapshot before
// the first one.
func (m *Monitor) Current() process.Snapshot {
	if s := m.current.Load(); s != nil {
		return *s
	}
	return process.Snapshot{}
}

func (m *Monitor) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	defer m.finish(gen)

	timer := time.NewTimer(m.Interval())
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.Refresh(ctx); err != nil && !isCancel(err) {
			m.log.Warn().Err(err).Msg("Refresh failed")
		}

		timer.Reset(m.Interval())
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// finish returns the machine to stopped when loop gen ended on its own
// (parent context done) rather than through Stop.
func (m *Monitor) finish(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen || m.cancel == nil {
		return
	}
	if err := m.fsm.Event(context.Background(), eStop); err != nil {
		return
	}
	m.cancel()
	m.cancel, m.done = nil, nil
	m.log.Info().Msg("Monitor stopped by context")
}

// Refresh builds and publishes a snapshot now. If a build is already
// running, Refresh waits for it and returns its snapshot instead of
// starting another. It returns the snapshot's Err for failed enumeration
// or cancellation; a cancelled build is never published.
func (m *Monitor) Refresh(ctx context.Context) (process.Snapshot, error) {
	for {
		m.buildMu.Lock()
		c := m.inflight
		leader := c == nil
		if leader {
			c = &call{done: make(chan struct{})}
			m.inflight = c
		}
		m.buildMu.Unlock()

		if leader {
			m.lead(ctx, c)
			return c.snap, c.snap.Err
		}

		select {
		case <-c.done:
		case <-ctx.Done():
			return process.Snapshot{}, ctx.Err()
		}
		// The build we joined was cut short by its own caller; run ours.
		if isCancel(c.snap.Err) && ctx.Err() == nil {
			continue
		}
		return c.snap, c.snap.Err
	}
}

// lead runs the build for c. Waiters are released even if Build panics.
func (m *Monitor) lead(ctx context.Context, c *call) {
	defer func() {
		m.buildMu.Lock()
		m.inflight = nil
		m.buildMu.Unlock()
		close(c.done)
	}()

	c.snap = m.b.Build(ctx)
	if !isCancel(c.snap.Err) {
		m.publish(c.snap)
	}
}

func (m *Monitor) publish(s process.Snapshot) {
	m.current.Store(&s)
	if m.onSnap != nil {
		m.onSnap(s)
	}
}

// Kill terminates pid and drops it from the current snapshot without a
// rebuild. A process that is already gone counts as killed.
func (m *Monitor) Kill(pid int32) error {
	if err := m.kill(pid); err != nil {
		return err
	}
	for {
		cur := m.current.Load()
		if cur == nil {
			return nil
		}
		next := cur.Without(pid)
		if m.current.CompareAndSwap(cur, &next) {
			m.log.Info().Int("pid", int(pid)).Msg("Process killed")
			return nil
		}
	}
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
