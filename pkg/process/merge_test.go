package process

import (
	"testing"
	"time"

	"github.com/ja7ad/procwatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRecord() Record {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return Record{
		PID:               42,
		Name:              "Safari",
		BundleID:          Some("com.apple.Safari"),
		Exe:               Some("/Applications/Safari.app/Contents/MacOS/Safari"),
		Cwd:               Some("/"),
		Args:              Some([]string{"Safari", "-x"}),
		Env:               Some(map[string]string{"HOME": "/Users/me"}),
		CPUPercent:        Some(12.5),
		CPUUser:           Some(1.25),
		CPUSystem:         Some(0.5),
		RSS:               Some(types.Bytes(500)),
		VMS:               Some(types.Bytes(9000)),
		Shared:            Some(types.Bytes(100)),
		Threads:           Some(int32(7)),
		FDs:               Some(int32(30)),
		State:             StateRunning,
		Priority:          Some(int32(31)),
		Nice:              Some(int32(0)),
		RealUID:           Some(uint32(501)),
		EffUID:            Some(uint32(501)),
		RealGID:           Some(uint32(20)),
		EffGID:            Some(uint32(20)),
		PGID:              Some(int32(42)),
		SID:               Some(int32(1)),
		PPID:              Some(int32(1)),
		StartTime:         Some(start),
		LaunchTime:        Some(start.Add(time.Second)),
		User:              Some(true),
		PageFaults:        Some(uint64(10)),
		PageIns:           Some(uint64(2)),
		PageOuts:          Some(uint64(0)),
		Policy:            Some(PolicyRegular),
		FinishedLaunching: Some(true),
		Hidden:            Some(false),
		OwnsMenuBar:       Some(true),
		Icon:              Some([]byte{1, 2, 3}),
		BytesRead:         Some(types.Bytes(1)),
		BytesWritten:      Some(types.Bytes(2)),
		DiskRead:          Some(types.Bytes(3)),
		DiskWritten:       Some(types.Bytes(4)),
		Connections:       Some(3),
		EnergyImpact:      Some(1.5),
		GPUPercent:        Some(0.0),
	}
}

func TestMerge_AbsentPartialIsNoop(t *testing.T) {
	r := fullRecord()
	assert.Equal(t, r, Merge(r, Record{}))
	assert.Equal(t, r, Merge(r, Record{PID: r.PID}))
}

func TestMerge_SelfMergeIsIdempotent(t *testing.T) {
	r := fullRecord()
	assert.Equal(t, r, Merge(r, r))

	seed := Seed(7)
	assert.Equal(t, seed, Merge(seed, seed))
}

func TestMerge_ZeroDoesNotEraseUsage(t *testing.T) {
	base := Record{PID: 1, RSS: Some(types.Bytes(500))}
	got := Merge(base, Record{PID: 1, RSS: Some(types.Bytes(0))})
	assert.Equal(t, types.Bytes(500), got.RSS.Value())

	base = Record{PID: 1, CPUPercent: Some(3.0), Threads: Some(int32(4))}
	got = Merge(base, Record{PID: 1, CPUPercent: Some(0.0), Threads: Some(int32(0))})
	assert.Equal(t, 3.0, got.CPUPercent.Value())
	assert.Equal(t, int32(4), got.Threads.Value())
}

func TestMerge_ZeroFillsAbsentUsage(t *testing.T) {
	got := Merge(Record{PID: 1}, Record{PID: 1, CPUPercent: Some(0.0)})
	v, ok := got.CPUPercent.Get()
	require.True(t, ok, "a reported zero is still information")
	assert.Equal(t, 0.0, v)
}

func TestMerge_NonZeroOverwritesUsage(t *testing.T) {
	base := Record{PID: 1, RSS: Some(types.Bytes(500))}
	got := Merge(base, Record{PID: 1, RSS: Some(types.Bytes(700))})
	assert.Equal(t, types.Bytes(700), got.RSS.Value())
}

func TestMerge_State(t *testing.T) {
	base := Record{PID: 1, State: StateRunning}
	assert.Equal(t, StateRunning, Merge(base, Record{State: StateUnknown}).State)
	assert.Equal(t, StateZombie, Merge(base, Record{State: StateZombie}).State)
}

func TestMerge_NameAndPID(t *testing.T) {
	base := Seed(100)
	got := Merge(base, Record{PID: 999, Name: ""})
	assert.Equal(t, int32(100), got.PID, "pid is never overwritten")
	assert.Equal(t, UnknownName, got.Name)

	got = Merge(base, Record{PID: 100, Name: "launchd"})
	assert.Equal(t, "launchd", got.Name)
}

func TestMerge_OptionalTakenRegardlessOfValue(t *testing.T) {
	base := Record{PID: 1, Nice: Some(int32(10)), Hidden: Some(true), PageOuts: Some(uint64(9))}
	got := Merge(base, Record{PID: 1, Nice: Some(int32(0)), Hidden: Some(false), PageOuts: Some(uint64(0))})
	assert.Equal(t, Some(int32(0)), got.Nice)
	assert.Equal(t, Some(false), got.Hidden)
	assert.Equal(t, Some(uint64(0)), got.PageOuts)
}

func TestMerge_UserFlagVerbatim(t *testing.T) {
	base := Seed(500) // pid-range heuristic says user
	require.True(t, base.User.Value())

	got := Merge(base, Record{PID: 500, User: Some(false)})
	assert.False(t, got.User.Value(), "a probe's classification replaces the heuristic")

	got = Merge(got, Record{PID: 500})
	assert.Equal(t, Some(false), got.User, "absent classification keeps the last one")
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := Record{PID: 1, Args: Some([]string{"a"})}
	in := Record{PID: 1, Args: Some([]string{"b"}), Name: "x"}
	_ = Merge(base, in)
	assert.Equal(t, []string{"a"}, base.Args.Value())
	assert.Equal(t, "", base.Name)
}

func TestMergeAll_OrderMatters(t *testing.T) {
	basic := Record{PID: 5, Name: "coreaudiod", State: StateSleeping}
	registry := Record{PID: 5, Name: "Core Audio", BundleID: Some("com.apple.audio.coreaudiod")}
	resource := Record{PID: 5, RSS: Some(types.Bytes(100)), Threads: Some(int32(3))}
	cmdline := Record{PID: 5, Exe: Some("/usr/sbin/coreaudiod")}

	got := MergeAll(Seed(5), basic, registry, resource, cmdline)
	assert.Equal(t, "Core Audio", got.Name)
	assert.Equal(t, StateSleeping, got.State)
	assert.Equal(t, "/usr/sbin/coreaudiod", got.Exe.Value())
	assert.Equal(t, types.Bytes(100), got.RSS.Value())
	assert.False(t, got.User.Value(), "seed heuristic: pid <= 100 is not a user process")
}
