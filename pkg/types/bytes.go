package types

import "fmt"

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

// FromKB converts a kilobyte count (1024 base), as reported by ps, into Bytes.
func FromKB(kb uint64) Bytes { return Bytes(kb * 1024) }

// FromPages converts a page count into Bytes for the given page size.
func FromPages(pages uint64, pageSize int) Bytes {
	if pageSize <= 0 {
		return 0
	}
	return Bytes(pages * uint64(pageSize))
}

// Humanized returns a human-readable string with automatic unit (B, KB, MB, GB, TB).
func (b Bytes) Humanized() string {
	v := float64(b)
	switch {
	case b >= 1<<40:
		return fmt.Sprintf("%.2f TB", v/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", v/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", v/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", v/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// String implements fmt.Stringer using the humanized form.
func (b Bytes) String() string { return b.Humanized() }

// Uint64 returns the raw byte count.
func (b Bytes) Uint64() uint64 { return uint64(b) }
