package probe

import (
	"context"

	gnet "github.com/shirou/gopsutil/v4/net"
)

// ConnCounter counts network connections per pid.
type ConnCounter interface {
	Count(ctx context.Context) (map[int32]int, error)
}

// ConnCounterFunc adapts a function to ConnCounter.
type ConnCounterFunc func(ctx context.Context) (map[int32]int, error)

func (f ConnCounterFunc) Count(ctx context.Context) (map[int32]int, error) { return f(ctx) }

// Connections scans the system-wide inet socket table and counts entries by
// owning pid. Attribution is best-effort: sockets the caller may not inspect
// come back with pid 0 and are dropped.
func Connections() ConnCounter {
	return ConnCounterFunc(func(ctx context.Context) (map[int32]int, error) {
		conns, err := gnet.ConnectionsWithContext(ctx, "inet")
		if err != nil {
			return nil, err
		}
		return countByPID(conns), nil
	})
}

func countByPID(conns []gnet.ConnectionStat) map[int32]int {
	out := make(map[int32]int)
	for _, c := range conns {
		if c.Pid <= 0 {
			continue
		}
		out[c.Pid]++
	}
	return out
}
