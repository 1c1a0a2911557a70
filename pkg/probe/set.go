package probe

import (
	"fmt"
	"time"
)

// Deep task probe modes.
const (
	DeepTaskAuto = "auto"
	DeepTaskOn   = "on"
	DeepTaskOff  = "off"
)

// Resource sources.
const (
	ResourceNative = "native"
	ResourcePS     = "ps"
)

// Options selects and tunes the default probe set.
type Options struct {
	Resource       string        // ResourceNative or ResourcePS
	Registry       bool          // include the application registry when the platform has one
	DeepTask       string        // DeepTaskAuto, DeepTaskOn or DeepTaskOff
	CmdlineTimeout time.Duration // <= 0 uses DefaultCmdlineTimeout
	CPUSmoothing   float64       // EMA alpha for CPU%, 0 disables

	// AppSource overrides the platform registry source.
	AppSource AppSource
	// Elevated overrides capability detection for DeepTaskAuto.
	Elevated func() bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Resource:       ResourceNative,
		Registry:       true,
		DeepTask:       DeepTaskAuto,
		CmdlineTimeout: DefaultCmdlineTimeout,
	}
}

// DefaultSet builds the probe set in merge order:
// basic, registry, resource, task, cmdline.
//
// The registry is left out when the platform has no source. The task probe
// is included for DeepTaskOn, or for DeepTaskAuto when the capability is
// present; it is never attempted and failed on every tick.
func DefaultSet(o Options) ([]Probe, error) {
	set := []Probe{NewBasic()}

	if o.Registry {
		src := o.AppSource
		if src == nil {
			src = DefaultAppSource()
		}
		if src != nil {
			set = append(set, NewRegistry(src, DefaultRegistryTTL))
		}
	}

	switch o.Resource {
	case "", ResourceNative:
		set = append(set, NewResource(o.CPUSmoothing))
	case ResourcePS:
		set = append(set, NewPS())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResourceSource, o.Resource)
	}

	elevated := o.Elevated
	if elevated == nil {
		elevated = Elevated
	}
	switch o.DeepTask {
	case DeepTaskOn:
		set = append(set, NewTask())
	case DeepTaskOff:
	default:
		if elevated() {
			set = append(set, NewTask())
		}
	}

	set = append(set, NewCmdline(o.CmdlineTimeout))
	return set, nil
}

// Names returns the probe names in order.
func Names(set []Probe) []string {
	out := make([]string, len(set))
	for i, p := range set {
		out[i] = p.Name()
	}
	return out
}
