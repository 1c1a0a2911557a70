package probe

import (
	"bufio"
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
)

// DefaultRegistryTTL is how long one registry listing serves lookups.
// It is shorter than the smallest refresh preset, so every snapshot sees a
// fresh listing while the per-pid lookups inside one build share it.
const DefaultRegistryTTL = 500 * time.Millisecond

// App is one entry in the running-application registry.
type App struct {
	PID               int32
	Name              string
	BundleID          string
	Exe               string
	LaunchTime        time.Time
	Policy            process.ActivationPolicy
	FinishedLaunching process.Opt[bool]
	Hidden            process.Opt[bool]
	OwnsMenuBar       process.Opt[bool]
	Icon              []byte
}

// Record converts the entry to a partial record. Empty strings, the zero
// time and a nil icon stay absent.
func (a App) Record() process.Record {
	r := process.Record{
		PID:               a.PID,
		Name:              a.Name,
		FinishedLaunching: a.FinishedLaunching,
		Hidden:            a.Hidden,
		OwnsMenuBar:       a.OwnsMenuBar,
	}
	if a.BundleID != "" {
		r.BundleID = process.Some(a.BundleID)
	}
	if a.Exe != "" {
		r.Exe = process.Some(a.Exe)
	}
	if !a.LaunchTime.IsZero() {
		r.LaunchTime = process.Some(a.LaunchTime)
	}
	if a.Policy != process.PolicyUnknown {
		r.Policy = process.Some(a.Policy)
	}
	if a.Icon != nil {
		r.Icon = process.Some(a.Icon)
	}
	return r
}

// AppSource lists the registered applications.
type AppSource interface {
	Apps(ctx context.Context) ([]App, error)
}

// AppSourceFunc adapts a function to AppSource.
type AppSourceFunc func(ctx context.Context) ([]App, error)

func (f AppSourceFunc) Apps(ctx context.Context) ([]App, error) { return f(ctx) }

// Registry answers per-pid lookups from a cached application listing. Only
// GUI or otherwise registered processes have an entry; every other pid is
// absent.
type Registry struct {
	src AppSource
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	byPID   map[int32]App
	fetched time.Time
}

// NewRegistry returns a registry probe over src. ttl <= 0 uses
// DefaultRegistryTTL.
func NewRegistry(src AppSource, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultRegistryTTL
	}
	return &Registry{src: src, ttl: ttl, now: time.Now}
}

func (*Registry) Name() string { return "registry" }

func (rg *Registry) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	apps := rg.listing(ctx)
	app, ok := apps[pid]
	if !ok {
		return process.Record{}, false
	}
	return app.Record(), true
}

// listing returns the cached listing, fetching a new one once the TTL has
// passed. Concurrent callers wait for a single fetch. A failed fetch is
// cached as empty for the TTL unless it failed by cancellation.
func (rg *Registry) listing(ctx context.Context) map[int32]App {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	now := rg.now()
	if rg.byPID != nil && now.Sub(rg.fetched) < rg.ttl {
		return rg.byPID
	}

	apps, err := rg.src.Apps(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	m := make(map[int32]App, len(apps))
	for _, a := range apps {
		if a.PID > 0 {
			m[a.PID] = a
		}
	}
	rg.byPID, rg.fetched = m, now
	return m
}

var lsHeader = regexp.MustCompile(`^\s*\d+\)\s+"(.*)"\s+ASN:`)

const lsTimeLayout = "2006/01/02 15:04:05"

// parseLSAppInfo reads `lsappinfo list` output. Each application is a block
// starting with `N) "Name" ASN:...` followed by indented key=value lines.
func parseLSAppInfo(r io.Reader, loc *time.Location) ([]App, error) {
	var (
		apps []App
		cur  *App
	)
	flush := func() {
		if cur != nil && cur.PID > 0 {
			apps = append(apps, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := lsHeader.FindStringSubmatch(line); m != nil {
			flush()
			cur = &App{Name: m[1]}
			continue
		}
		if cur == nil {
			continue
		}

		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "bundleID="):
			cur.BundleID = quoted(line, "bundleID")
		case strings.HasPrefix(line, "executable path="):
			cur.Exe = quoted(line, "executable path")
		case strings.HasPrefix(line, "pid ="):
			cur.PID = lsPID(line)
			cur.Policy = policyFromType(quoted(line, "type"))
		case strings.HasPrefix(line, "launch time ="):
			if t, ok := lsTime(line, "launch time =", loc); ok {
				cur.LaunchTime = t
			}
		case strings.HasPrefix(line, "checkin time ="):
			cur.FinishedLaunching = process.Some(true)
		}
	}
	flush()
	return apps, sc.Err()
}

// quoted returns the value of key="value" in line, or "" when the key is
// missing or unquoted (lsappinfo prints [ NULL ] for unset values).
func quoted(line, key string) string {
	i := strings.Index(line, key+`="`)
	if i < 0 {
		return ""
	}
	rest := line[i+len(key)+2:]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return ""
	}
	return rest[:j]
}

func lsPID(line string) int32 {
	fs := strings.Fields(strings.TrimPrefix(line, "pid ="))
	if len(fs) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(fs[0], 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

func lsTime(line, prefix string, loc *time.Location) (time.Time, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if i := strings.IndexByte(rest, '('); i >= 0 {
		rest = strings.TrimSpace(rest[:i])
	}
	t, err := time.ParseInLocation(lsTimeLayout, rest, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func policyFromType(t string) process.ActivationPolicy {
	switch t {
	case "Foreground":
		return process.PolicyRegular
	case "UIElement":
		return process.PolicyAccessory
	case "BackgroundOnly":
		return process.PolicyProhibited
	default:
		return process.PolicyUnknown
	}
}
