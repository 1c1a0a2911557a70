package process

// Merge combines a base record with a partial record for the same process.
// For each field the incoming value wins when it is present and passes the
// field's gate; otherwise base is kept. Neither argument is modified.
//
// Gates:
//   - PID always comes from base.
//   - Name is taken only when non-empty.
//   - CPU%, CPU times, RSS, VMS, shared memory and thread count are taken
//     only when non-zero, so a later zero never erases an earlier reading.
//     A zero still fills a field base does not have.
//   - State is taken unless it is StateUnknown.
//   - Everything else, including the user-process flag, is taken whenever
//     present.
func Merge(base, in Record) Record {
	out := base

	if in.Name != "" {
		out.Name = in.Name
	}

	out.BundleID = pick(base.BundleID, in.BundleID)
	out.Exe = pick(base.Exe, in.Exe)
	out.Cwd = pick(base.Cwd, in.Cwd)
	out.Args = pick(base.Args, in.Args)
	out.Env = pick(base.Env, in.Env)

	out.CPUPercent = pickNonZero(base.CPUPercent, in.CPUPercent)
	out.CPUUser = pickNonZero(base.CPUUser, in.CPUUser)
	out.CPUSystem = pickNonZero(base.CPUSystem, in.CPUSystem)
	out.RSS = pickNonZero(base.RSS, in.RSS)
	out.VMS = pickNonZero(base.VMS, in.VMS)
	out.Shared = pickNonZero(base.Shared, in.Shared)
	out.Threads = pickNonZero(base.Threads, in.Threads)
	out.FDs = pick(base.FDs, in.FDs)

	if in.State != StateUnknown {
		out.State = in.State
	}
	out.Priority = pick(base.Priority, in.Priority)
	out.Nice = pick(base.Nice, in.Nice)
	out.RealUID = pick(base.RealUID, in.RealUID)
	out.EffUID = pick(base.EffUID, in.EffUID)
	out.RealGID = pick(base.RealGID, in.RealGID)
	out.EffGID = pick(base.EffGID, in.EffGID)
	out.PGID = pick(base.PGID, in.PGID)
	out.SID = pick(base.SID, in.SID)
	out.PPID = pick(base.PPID, in.PPID)
	out.StartTime = pick(base.StartTime, in.StartTime)
	out.LaunchTime = pick(base.LaunchTime, in.LaunchTime)

	out.User = pick(base.User, in.User)
	out.PageFaults = pick(base.PageFaults, in.PageFaults)
	out.PageIns = pick(base.PageIns, in.PageIns)
	out.PageOuts = pick(base.PageOuts, in.PageOuts)

	out.Policy = pick(base.Policy, in.Policy)
	out.FinishedLaunching = pick(base.FinishedLaunching, in.FinishedLaunching)
	out.Hidden = pick(base.Hidden, in.Hidden)
	out.OwnsMenuBar = pick(base.OwnsMenuBar, in.OwnsMenuBar)
	out.Icon = pick(base.Icon, in.Icon)

	out.BytesRead = pick(base.BytesRead, in.BytesRead)
	out.BytesWritten = pick(base.BytesWritten, in.BytesWritten)
	out.DiskRead = pick(base.DiskRead, in.DiskRead)
	out.DiskWritten = pick(base.DiskWritten, in.DiskWritten)

	out.Connections = pick(base.Connections, in.Connections)

	out.EnergyImpact = pick(base.EnergyImpact, in.EnergyImpact)
	out.GPUPercent = pick(base.GPUPercent, in.GPUPercent)

	return out
}

// MergeAll folds parts into base left to right.
func MergeAll(base Record, parts ...Record) Record {
	for _, p := range parts {
		base = Merge(base, p)
	}
	return base
}

func pick[T any](base, in Opt[T]) Opt[T] {
	if in.ok {
		return in
	}
	return base
}

func pickNonZero[T comparable](base, in Opt[T]) Opt[T] {
	var zero T
	if in.ok && (in.v != zero || !base.ok) {
		return in
	}
	return base
}
