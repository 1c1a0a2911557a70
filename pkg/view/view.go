// Package view filters and orders snapshot records for display.
//
// Apply is pure: it never modifies its input and may be called on every
// keystroke from any goroutine.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ja7ad/procwatch/pkg/process"
)

// Category narrows records by classification.
type Category uint8

const (
	CategoryAll    Category = iota
	CategoryUser            // user processes
	CategorySystem          // everything that is not a user process
	CategoryApp             // processes with an associated application
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryApp:
		return "app"
	default:
		return "all"
	}
}

// SortKey selects the ordering column.
type SortKey uint8

const (
	SortCPU SortKey = iota
	SortMemory
	SortName
	SortPID
	SortThreads
)

func (k SortKey) String() string {
	switch k {
	case SortMemory:
		return "memory"
	case SortName:
		return "name"
	case SortPID:
		return "pid"
	case SortThreads:
		return "threads"
	default:
		return "cpu"
	}
}

// State is the user's current filter and sort selection.
type State struct {
	Search    string
	Category  Category
	Sort      SortKey
	Ascending bool
}

// Apply returns the records matching s, ordered by s.Sort. Search matches
// case-insensitively against name, bundle id, pid and executable path.
// Names compare byte-wise. Ties are broken by ascending pid so the order is
// stable across refreshes.
// Absent values sort as zero.
func Apply(records []process.Record, s State) []process.Record {
	needle := strings.ToLower(strings.TrimSpace(s.Search))

	out := make([]process.Record, 0, len(records))
	for _, r := range records {
		if inCategory(r, s.Category) && matches(r, needle) {
			out = append(out, r)
		}
	}

	less := comparator(s.Sort)
	slices.SortStableFunc(out, func(a, b process.Record) int {
		c := less(a, b)
		if !s.Ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	return out
}

func inCategory(r process.Record, c Category) bool {
	switch c {
	case CategoryUser:
		return r.User.Value()
	case CategorySystem:
		return !r.User.Value()
	case CategoryApp:
		return r.BundleID.OrElse("") != ""
	default:
		return true
	}
}

func matches(r process.Record, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), needle) ||
		strings.Contains(strings.ToLower(r.BundleID.Value()), needle) ||
		strings.Contains(strconv.Itoa(int(r.PID)), needle) ||
		strings.Contains(strings.ToLower(r.Exe.Value()), needle)
}

func comparator(k SortKey) func(a, b process.Record) int {
	switch k {
	case SortMemory:
		return func(a, b process.Record) int { return cmp.Compare(a.RSS.Value(), b.RSS.Value()) }
	case SortName:
		return func(a, b process.Record) int { return cmp.Compare(a.Name, b.Name) }
	case SortPID:
		return func(a, b process.Record) int { return cmp.Compare(a.PID, b.PID) }
	case SortThreads:
		return func(a, b process.Record) int { return cmp.Compare(a.Threads.Value(), b.Threads.Value()) }
	default:
		return func(a, b process.Record) int { return cmp.Compare(a.CPUPercent.Value(), b.CPUPercent.Value()) }
	}
}

// ParseCategory maps a flag value to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return CategoryAll, nil
	case "user":
		return CategoryUser, nil
	case "system":
		return CategorySystem, nil
	case "app", "apps":
		return CategoryApp, nil
	default:
		return CategoryAll, fmt.Errorf("%w: category %q", ErrUnknown, s)
	}
}

// ParseSortKey maps a flag value to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(s) {
	case "", "cpu":
		return SortCPU, nil
	case "memory", "mem", "rss":
		return SortMemory, nil
	case "name":
		return SortName, nil
	case "pid":
		return SortPID, nil
	case "threads":
		return SortThreads, nil
	default:
		return SortCPU, fmt.Errorf("%w: sort key %q", ErrUnknown, s)
	}
}
