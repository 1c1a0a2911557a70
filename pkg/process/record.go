package process

import (
	"strings"
	"time"

	"github.com/ja7ad/procwatch/pkg/types"
)

// UnknownName is the placeholder name used until a probe reports a real one.
const UnknownName = "Unknown"

// State is the lifecycle state of a process.
type State uint8

const (
	StateUnknown State = iota
	StateIdle
	StateRunning
	StateSleeping
	StateStopped
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseState maps a status word (gopsutil status names, ps STAT letters or
// the names above) to a State. Unrecognized input is StateUnknown.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle", "i":
		return StateIdle
	case "running", "r":
		return StateRunning
	case "sleeping", "sleep", "s", "d", "wait", "w", "lock", "l", "blocked":
		return StateSleeping
	case "stopped", "stop", "t":
		return StateStopped
	case "zombie", "z":
		return StateZombie
	default:
		return StateUnknown
	}
}

// ActivationPolicy is how a registered application participates in the UI.
type ActivationPolicy uint8

const (
	PolicyUnknown ActivationPolicy = iota
	PolicyRegular
	PolicyAccessory
	PolicyProhibited
)

func (p ActivationPolicy) String() string {
	switch p {
	case PolicyRegular:
		return "regular"
	case PolicyAccessory:
		return "accessory"
	case PolicyProhibited:
		return "prohibited"
	default:
		return "unknown"
	}
}

// MarshalText renders the policy by name.
func (p ActivationPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Record is everything known about one process at capture time.
//
// A Record returned by a probe is partial: only the fields that probe's
// source can supply are present. Records are values and are never modified
// after construction; Merge produces a new one.
type Record struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`

	// Identity
	BundleID Opt[string]            `json:"bundle_id"`
	Exe      Opt[string]            `json:"exe"`
	Cwd      Opt[string]            `json:"cwd"`
	Args     Opt[[]string]          `json:"args"`
	Env      Opt[map[string]string] `json:"env"`

	// Resource usage
	CPUPercent Opt[float64]     `json:"cpu_percent"`
	CPUUser    Opt[float64]     `json:"cpu_user_sec"`
	CPUSystem  Opt[float64]     `json:"cpu_system_sec"`
	RSS        Opt[types.Bytes] `json:"rss"`
	VMS        Opt[types.Bytes] `json:"vms"`
	Shared     Opt[types.Bytes] `json:"shared"`
	Threads    Opt[int32]       `json:"threads"`
	FDs        Opt[int32]       `json:"fds"`

	// Process state
	State      State          `json:"state"`
	Priority   Opt[int32]     `json:"priority"`
	Nice       Opt[int32]     `json:"nice"`
	RealUID    Opt[uint32]    `json:"ruid"`
	EffUID     Opt[uint32]    `json:"euid"`
	RealGID    Opt[uint32]    `json:"rgid"`
	EffGID     Opt[uint32]    `json:"egid"`
	PGID       Opt[int32]     `json:"pgid"`
	SID        Opt[int32]     `json:"sid"`
	PPID       Opt[int32]     `json:"ppid"`
	StartTime  Opt[time.Time] `json:"start_time"`
	LaunchTime Opt[time.Time] `json:"launch_time"`

	// Classification
	User       Opt[bool]   `json:"user_process"`
	PageFaults Opt[uint64] `json:"page_faults"`
	PageIns    Opt[uint64] `json:"page_ins"`
	PageOuts   Opt[uint64] `json:"page_outs"`

	// Application layer
	Policy            Opt[ActivationPolicy] `json:"activation_policy"`
	FinishedLaunching Opt[bool]             `json:"finished_launching"`
	Hidden            Opt[bool]             `json:"hidden"`
	OwnsMenuBar       Opt[bool]             `json:"owns_menu_bar"`
	Icon              Opt[[]byte]           `json:"-"`

	// I/O
	BytesRead    Opt[types.Bytes] `json:"bytes_read"`
	BytesWritten Opt[types.Bytes] `json:"bytes_written"`
	DiskRead     Opt[types.Bytes] `json:"disk_read"`
	DiskWritten  Opt[types.Bytes] `json:"disk_written"`

	// Network, best-effort attribution.
	Connections Opt[int] `json:"connections"`

	// Energy / GPU
	EnergyImpact Opt[float64] `json:"energy_impact"`
	GPUPercent   Opt[float64] `json:"gpu_percent"`
}

// Seed returns the record every merge chain starts from: the pid, a
// placeholder name and the pid-range user-process heuristic.
func Seed(pid int32) Record {
	return Record{
		PID:  pid,
		Name: UnknownName,
		User: Some(pid > 100),
	}
}
