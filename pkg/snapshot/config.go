package snapshot

import "time"

// Config bounds one snapshot build.
type Config struct {
	Cap           int           // max processes probed per snapshot
	BatchSize     int           // processes probed concurrently per batch
	NetworkBudget time.Duration // wall-clock budget for the connection scan
}

func _defaultConfig() *Config {
	return &Config{
		Cap:           200,
		BatchSize:     50,
		NetworkBudget: 2 * time.Second,
	}
}

// DefaultConfig returns a copy of the defaults.
func DefaultConfig() Config { return *_defaultConfig() }

// merge applies positive-only overrides from cfg onto the defaults.
func merge(cfg *Config) Config {
	out := *_defaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.Cap > 0 {
		out.Cap = cfg.Cap
	}
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.NetworkBudget > 0 {
		out.NetworkBudget = cfg.NetworkBudget
	}
	return out
}
