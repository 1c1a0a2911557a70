package energy

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/system/util"
	"github.com/shirou/gopsutil/v4/cpu"
)

type counters struct {
	read, write, rss uint64
}

// Estimator scores each record of a snapshot with its estimated power draw
// in Watts, stored as EnergyImpact. Disk and memory terms need two
// snapshots; the first one is scored on CPU alone.
//
// It also keeps running host-wide energy and averages across snapshots.
type Estimator struct {
	cfg   *Config
	cores float64

	mu     sync.Mutex
	prev   map[int32]counters
	prevAt time.Time

	energyCumJ float64
	count      int
	sum        Result
}

// New creates an estimator with the given config.
// Fields > 0 (or valid ranges) in cfg override defaults.
// Notes:
//   - Alpha in [0..1] is accepted verbatim (0 is a valid choice).
//   - EMemRSS: zero is treated as an intentional "disable" and respected.
//   - Negative values are treated as "unset" and defaulted.
//   - PIdle/PMax/Gamma/ER/EW must be > 0 to override defaults.
func New(cfg *Config) *Estimator {
	return &Estimator{cfg: mergeConfig(cfg), cores: float64(logicalCores()), prev: map[int32]counters{}}
}

func mergeConfig(cfg *Config) *Config {
	base := _defaultConfig()
	if cfg == nil {
		return base
	}

	merged := *base

	// Positive-only overrides
	if cfg.PIdle > 0 {
		merged.PIdle = cfg.PIdle
	}
	if cfg.PMax > 0 {
		merged.PMax = cfg.PMax
	}
	if cfg.Gamma > 0 {
		merged.Gamma = cfg.Gamma
	}
	if cfg.ER > 0 {
		merged.ER = cfg.ER
	}
	if cfg.EW > 0 {
		merged.EW = cfg.EW
	}

	if cfg.EMemRSS >= 0 {
		merged.EMemRSS = cfg.EMemRSS
	}
	if cfg.Alpha >= 0 && cfg.Alpha <= 1 {
		merged.Alpha = cfg.Alpha
	}

	if merged.PMax < merged.PIdle {
		merged.PMax = merged.PIdle
	}
	return &merged
}

func logicalCores() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Config returns the effective coefficients.
func (e *Estimator) Config() Config { return *e.cfg }

// Power runs the model on a single sample.
func (e *Estimator) Power(s Sample) Result {
	uvm := util.Clamp01(s.UVm)
	up := util.Clamp01(s.UProc)

	// CPU dynamic power at host level
	pdyn := (e.cfg.PMax - e.cfg.PIdle) * util.Pow(uvm, e.cfg.Gamma)

	// Attribute dynamic CPU power by share
	var pcpu float64
	if uvm > 1e-12 {
		pcpu = (up / uvm) * pdyn
	}

	dt := math.Max(s.TimeSec, 1e-6)
	pdisk := (e.cfg.ER*float64(s.ReadBytes) + e.cfg.EW*float64(s.WriteBytes)) / dt
	pram := e.cfg.EMemRSS * float64(s.RSSChurnBytes) / dt

	var pidleShare float64
	if uvm > 1e-12 && e.cfg.Alpha > 0 {
		pidleShare = e.cfg.Alpha * e.cfg.PIdle * (up / uvm)
	}

	return Result{PCPU: pcpu, PDisk: pdisk, PRAM: pram, PTotal: pcpu + pdisk + pram + pidleShare}
}

// Annotate implements snapshot.Annotator. Host utilization is the sum of
// the records' CPU%; records with neither CPU% nor I/O counters are left
// unscored. Counters of pids missing from recs are forgotten.
func (e *Estimator) Annotate(recs []process.Record, at time.Time) []process.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	var dt float64
	if !e.prevAt.IsZero() {
		dt = at.Sub(e.prevAt).Seconds()
	}

	allCores := 100 * e.cores
	var total float64
	for _, r := range recs {
		total += r.CPUPercent.Value()
	}
	uvm := util.SafeDiv(total, allCores)

	next := make(map[int32]counters, len(recs))
	out := make([]process.Record, len(recs))
	var tick Result
	for i, r := range recs {
		cur, hasIO := countersOf(r)
		next[r.PID] = cur

		if !r.CPUPercent.Valid() && !hasIO {
			out[i] = r
			continue
		}

		s := Sample{TimeSec: dt, UVm: uvm, UProc: util.SafeDiv(r.CPUPercent.Value(), allCores)}
		if prev, ok := e.prev[r.PID]; ok && dt > 0 {
			s.ReadBytes = util.DeltaU64(cur.read, prev.read)
			s.WriteBytes = util.DeltaU64(cur.write, prev.write)
			s.RSSChurnBytes = absDiff(cur.rss, prev.rss)
		}

		res := e.Power(s)
		tick = tick.add(res)
		out[i] = process.Merge(r, process.Record{EnergyImpact: process.Some(res.PTotal)})
	}

	if dt > 0 {
		e.energyCumJ += tick.PTotal * dt
		e.count++
		e.sum = e.sum.add(tick)
	}
	e.prev, e.prevAt = next, at
	return out
}

// countersOf prefers storage-level bytes and falls back to syscall bytes.
func countersOf(r process.Record) (counters, bool) {
	read, okR := r.DiskRead.Get()
	if !okR {
		read, okR = r.BytesRead.Get()
	}
	write, okW := r.DiskWritten.Get()
	if !okW {
		write, okW = r.BytesWritten.Get()
	}
	return counters{read: read.Uint64(), write: write.Uint64(), rss: r.RSS.Value().Uint64()}, okR || okW
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// EnergyCumJ returns cumulative host energy in Joules over all annotated
// intervals.
func (e *Estimator) EnergyCumJ() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.energyCumJ
}

// Averages returns average host power over all annotated intervals.
func (e *Estimator) Averages() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.count == 0 {
		return Result{}
	}
	n := float64(e.count)
	return Result{
		PCPU:   e.sum.PCPU / n,
		PDisk:  e.sum.PDisk / n,
		PRAM:   e.sum.PRAM / n,
		PTotal: e.sum.PTotal / n,
	}
}
