//go:build !darwin

package probe

// DefaultAppSource returns nil: there is no application registry outside
// macOS and the registry probe is left out of the set.
func DefaultAppSource() AppSource { return nil }
