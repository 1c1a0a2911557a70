package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	// Monitor loop settings
	Monitor MonitorConfig `toml:"monitor"`

	// Snapshot builder limits
	Snapshot SnapshotConfig `toml:"snapshot"`

	// Probe selection
	Probes ProbesConfig `toml:"probes"`

	// Energy impact model
	Energy EnergyConfig `toml:"energy"`

	// Prometheus endpoint for `procwatch watch`
	Metrics MetricsConfig `toml:"metrics"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`
}

// Duration wraps time.Duration so it reads and writes as "2s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MonitorConfig contains the refresh loop settings
type MonitorConfig struct {
	// Refresh interval (default: "2s", presets 1s/2s/5s/10s)
	Interval Duration `toml:"interval"`
}

// SnapshotConfig bounds one snapshot build
type SnapshotConfig struct {
	// Maximum processes probed per snapshot (default: 200)
	Cap int `toml:"cap"`

	// Processes probed concurrently per batch (default: 50)
	BatchSize int `toml:"batch_size"`

	// Count network connections per process (default: true)
	Network bool `toml:"network"`

	// Wall-clock budget for the connection scan (default: "2s")
	NetworkBudget Duration `toml:"network_budget"`
}

// ProbesConfig selects data sources
type ProbesConfig struct {
	// Resource source: "native" or "ps" (default: "native")
	Resource string `toml:"resource"`

	// Query the running-application registry where available (default: true)
	Registry bool `toml:"registry"`

	// Deep task counters: "auto", "on", "off" (default: "auto")
	DeepTask string `toml:"deep_task"`

	// Command-line probe timeout (default: "100ms")
	CmdlineTimeout Duration `toml:"cmdline_timeout"`

	// EMA alpha for CPU%, 0 disables smoothing (default: 0)
	CPUSmoothing float64 `toml:"cpu_smoothing"`
}

// EnergyConfig holds the power model coefficients
type EnergyConfig struct {
	// Annotate records with an energy impact score (default: true)
	Enabled bool `toml:"enabled"`

	// Watts at idle (default: 5)
	PIdle float64 `toml:"p_idle"`

	// Watts at full utilization (default: 20)
	PMax float64 `toml:"p_max"`

	// CPU curve exponent (default: 1.3)
	Gamma float64 `toml:"gamma"`

	// Joules per byte read from disk (default: 4.8e-8)
	ER float64 `toml:"er"`

	// Joules per byte written to disk (default: 9.5e-8)
	EW float64 `toml:"ew"`

	// Joules per byte of resident-set churn, 0 disables (default: 3e-10)
	EMemRSS float64 `toml:"e_mem_rss"`

	// Fraction of idle power charged by CPU share, [0,1] (default: 0)
	Alpha float64 `toml:"alpha"`
}

// MetricsConfig contains HTTP metrics settings
type MetricsConfig struct {
	// Serve Prometheus metrics while watching (default: false)
	Enabled bool `toml:"enabled"`

	// Address to listen on (default: "localhost:9187")
	ListenAddress string `toml:"listen_address"`

	// Path under which to expose metrics (default: "/metrics")
	Path string `toml:"path"`
}

// LoggingConfig contains the logging configuration
type LoggingConfig struct {
	// Log level: trace, debug, info, warn, error (default: "info")
	Level string `toml:"level"`

	// Time format (default: "" = RFC3339 with milliseconds, or "Unix", "UnixMs")
	TimeFormat string `toml:"time_format"`

	// Console output
	Console ConsoleConfig `toml:"console"`

	// Optional rotating file output
	File FileConfig `toml:"file"`
}

// ConsoleConfig contains console/terminal output settings
type ConsoleConfig struct {
	// Enable console output (default: true)
	Enabled bool `toml:"enabled"`

	// Output format: "auto", "logfmt", "json" (default: "auto")
	Format string `toml:"format"`

	// Enable colored output (default: true)
	ColorOutput bool `toml:"color_output"`

	// Output destination: "stderr" or "stdout" (default: "stderr")
	Writer string `toml:"writer"`
}

// FileConfig contains file output settings
type FileConfig struct {
	// Enable file output (default: false)
	Enabled bool `toml:"enabled"`

	// Log file path (default: "logs/procwatch.log")
	Filename string `toml:"filename"`

	// Maximum file size in megabytes (default: 10)
	MaxSize int64 `toml:"max_size"`

	// Maximum number of old log files to keep (default: 7)
	MaxBackups int `toml:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Monitor: MonitorConfig{
			Interval: Duration{2 * time.Second},
		},
		Snapshot: SnapshotConfig{
			Cap:           200,
			BatchSize:     50,
			Network:       true,
			NetworkBudget: Duration{2 * time.Second},
		},
		Probes: ProbesConfig{
			Resource:       "native",
			Registry:       true,
			DeepTask:       "auto",
			CmdlineTimeout: Duration{100 * time.Millisecond},
			CPUSmoothing:   0,
		},
		Energy: EnergyConfig{
			Enabled: true,
			PIdle:   5.0,
			PMax:    20.0,
			Gamma:   1.3,
			ER:      4.8e-8,
			EW:      9.5e-8,
			EMemRSS: 3e-10,
			Alpha:   0,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: "localhost:9187",
			Path:          "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			TimeFormat: "",
			Console: ConsoleConfig{
				Enabled:     true,
				Format:      "auto",
				ColorOutput: true,
				Writer:      "stderr",
			},
			File: FileConfig{
				Enabled:    false,
				Filename:   "logs/procwatch.log",
				MaxSize:    10,
				MaxBackups: 7,
			},
		},
	}
}

// LoadConfig loads configuration from a TOML file, falling back to defaults
// for every key the file does not set.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("%w: %s", ErrNotFound, configPath)
	}

	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return config, nil
}

// GenerateExampleConfig writes a TOML file holding the default values.
func GenerateExampleConfig(outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	header := `# procwatch example configuration
# Generated from the built-in defaults. Every key is optional; a missing
# key keeps its default. Durations use Go syntax ("100ms", "2s").

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(DefaultConfig()); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors
func (c *AppConfig) Validate() error {
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("%w: monitor.interval must be positive", ErrInvalid)
	}
	if c.Snapshot.Cap <= 0 {
		return fmt.Errorf("%w: snapshot.cap must be positive", ErrInvalid)
	}
	if c.Snapshot.BatchSize <= 0 {
		return fmt.Errorf("%w: snapshot.batch_size must be positive", ErrInvalid)
	}
	if c.Snapshot.Network && c.Snapshot.NetworkBudget.Duration <= 0 {
		return fmt.Errorf("%w: snapshot.network_budget must be positive", ErrInvalid)
	}

	switch c.Probes.Resource {
	case "native", "ps":
	default:
		return fmt.Errorf("%w: probes.resource %q (want native or ps)", ErrInvalid, c.Probes.Resource)
	}
	switch c.Probes.DeepTask {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("%w: probes.deep_task %q (want auto, on or off)", ErrInvalid, c.Probes.DeepTask)
	}
	if c.Probes.CPUSmoothing < 0 || c.Probes.CPUSmoothing > 1 {
		return fmt.Errorf("%w: probes.cpu_smoothing must be within [0,1]", ErrInvalid)
	}

	if c.Energy.Alpha < 0 || c.Energy.Alpha > 1 {
		return fmt.Errorf("%w: energy.alpha must be within [0,1]", ErrInvalid)
	}

	if c.Metrics.Enabled {
		if c.Metrics.ListenAddress == "" {
			return fmt.Errorf("%w: metrics.listen_address cannot be empty", ErrInvalid)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("%w: metrics.path cannot be empty", ErrInvalid)
		}
	}

	if !c.Logging.Console.Enabled && !c.Logging.File.Enabled {
		return fmt.Errorf("%w: at least one logging output must be enabled", ErrInvalid)
	}
	if c.Logging.File.Enabled && c.Logging.File.Filename == "" {
		return fmt.Errorf("%w: logging.file.filename cannot be empty", ErrInvalid)
	}
	return nil
}
