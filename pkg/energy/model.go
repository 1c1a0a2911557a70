package energy

// Config holds model coefficients.
// Units:
//   - PIdle/PMax: Watts
//   - Gamma: dimensionless (CPU nonlinearity)
//   - ER/EW: Joules per byte (disk read/write)
//   - EMemRSS: Joules per byte of resident-set churn
//   - Alpha: fraction of idle to charge to process share [0..1]
type Config struct {
	PIdle   float64
	PMax    float64
	Gamma   float64
	ER      float64
	EW      float64
	EMemRSS float64
	Alpha   float64
}

// _defaultConfig returns a Config pre-filled with reasonable default coefficients.
func _defaultConfig() *Config {
	return &Config{
		PIdle:   5.0,    // W at idle
		PMax:    20.0,   // W at full utilization
		Gamma:   1.3,    // CPU curve exponent
		ER:      4.8e-8, // J/byte disk read
		EW:      9.5e-8, // J/byte disk write
		EMemRSS: 3e-10,  // J/byte RSS churn
		Alpha:   0.0,    // fraction of idle to distribute
	}
}

// Sample is one process's activity over one interval.
type Sample struct {
	TimeSec       float64 // interval length (dt)
	UVm           float64 // whole-host CPU utilization [0..1]
	UProc         float64 // this process's share of all cores [0..1]
	ReadBytes     uint64  // bytes read during dt
	WriteBytes    uint64  // bytes written during dt
	RSSChurnBytes uint64  // |ΔRSS| during dt
}

// Result is the instantaneous power breakdown for one sample.
type Result struct {
	PCPU   float64 // W
	PDisk  float64 // W
	PRAM   float64 // W
	PTotal float64 // W
}

func (r Result) add(o Result) Result {
	return Result{
		PCPU:   r.PCPU + o.PCPU,
		PDisk:  r.PDisk + o.PDisk,
		PRAM:   r.PRAM + o.PRAM,
		PTotal: r.PTotal + o.PTotal,
	}
}
