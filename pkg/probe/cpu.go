package probe

import (
	"sync"
	"time"

	"github.com/ja7ad/procwatch/pkg/system/util"
)

type cpuSample struct {
	created int64   // process create time, unix ms; 0 if unknown
	total   float64 // user+system seconds
	at    time.Time
	ema   *util.EMA
}

// CPUTracker turns cumulative CPU seconds into an instantaneous percentage
// by remembering the previous sample per pid. 100 means one core fully busy.
type CPUTracker struct {
	mu    sync.Mutex
	alpha float64
	last  map[int32]cpuSample
}

// NewCPUTracker returns a tracker. alpha in (0,1] smooths successive
// readings with an EMA; 0 disables smoothing.
func NewCPUTracker(alpha float64) *CPUTracker {
	return &CPUTracker{alpha: util.Clamp01(alpha), last: make(map[int32]cpuSample)}
}

// Observe records total CPU seconds for pid at time at and returns the
// usage since the previous sample. created is the process create time in
// unix milliseconds, 0 when unknown. It reports false on first sighting and
// when the pid now belongs to another process: the create time changed or
// the counter went backwards.
func (t *CPUTracker) Observe(pid int32, created int64, total float64, at time.Time) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, seen := t.last[pid]
	if seen && (total < prev.total || reused(prev.created, created)) {
		seen = false
	}

	cur := cpuSample{created: created, total: total, at: at}
	if seen {
		cur.ema = prev.ema
	} else if t.alpha > 0 {
		cur.ema = util.NewEMA(t.alpha)
	}
	t.last[pid] = cur

	if !seen {
		return 0, false
	}
	wall := at.Sub(prev.at).Seconds()
	if wall <= 0 {
		return 0, false
	}

	pct := util.SafeDiv(total-prev.total, wall) * 100
	if cur.ema != nil {
		pct = cur.ema.Next(pct)
	}
	return pct, true
}

func reused(prev, cur int64) bool {
	return prev != 0 && cur != 0 && prev != cur
}

// Retain drops samples for pids not in alive.
func (t *CPUTracker) Retain(alive []int32) {
	keep := make(map[int32]struct{}, len(alive))
	for _, pid := range alive {
		keep[pid] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for pid := range t.last {
		if _, ok := keep[pid]; !ok {
			delete(t.last, pid)
		}
	}
}

// Len returns the number of tracked pids.
func (t *CPUTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
