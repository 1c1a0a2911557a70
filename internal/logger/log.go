package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ja7ad/procwatch/internal/config"
	"github.com/phuslu/log"
)

// parseLogLevel converts string log level to log.Level
func parseLogLevel(levelStr string) log.Level {
	switch levelStr {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// mapTimeFormat maps string time format to log.TimeFormat
func mapTimeFormat(format string) string {
	switch format {
	case "Unix":
		return log.TimeFormatUnix
	case "UnixMs":
		return log.TimeFormatUnixMs
	default:
		return format
	}
}

// createConsoleWriter creates a console writer based on configuration
func createConsoleWriter(c config.ConsoleConfig) log.Writer {
	var base io.Writer = os.Stderr
	if c.Writer == "stdout" {
		base = os.Stdout
	}

	switch c.Format {
	case "json":
		return &log.IOWriter{Writer: base}
	case "logfmt":
		return &log.ConsoleWriter{
			Formatter:      log.LogfmtFormatter{TimeField: "time"}.Formatter,
			EndWithMessage: true,
			Writer:         base,
		}
	default:
		return &log.ConsoleWriter{
			ColorOutput:    c.ColorOutput,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         base,
		}
	}
}

// createFileWriter creates a rotating file writer based on configuration
func createFileWriter(c config.FileConfig) (log.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(c.Filename), 0755); err != nil {
		return nil, err
	}
	return &log.FileWriter{
		Filename:     c.Filename,
		FileMode:     0644,
		MaxSize:      c.MaxSize * 1024 * 1024,
		MaxBackups:   c.MaxBackups,
		LocalTime:    true,
		EnsureFolder: true,
	}, nil
}

func createWriter(c config.LoggingConfig) (log.Writer, error) {
	var writers []log.Writer
	if c.Console.Enabled {
		writers = append(writers, createConsoleWriter(c.Console))
	}
	if c.File.Enabled {
		w, err := createFileWriter(c.File)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	switch len(writers) {
	case 0:
		return &log.IOWriter{Writer: os.Stderr}, nil
	case 1:
		return writers[0], nil
	default:
		multi := log.MultiEntryWriter(writers)
		return &multi, nil
	}
}

// Configure sets the global DefaultLogger from user configuration. Component
// loggers created afterwards with New inherit its level and writers.
func Configure(c config.LoggingConfig) error {
	w, err := createWriter(c)
	if err != nil {
		return err
	}

	log.DefaultLogger = log.Logger{
		Level:        parseLogLevel(c.Level),
		TimeField:    "time",
		TimeFormat:   mapTimeFormat(c.TimeFormat),
		TimeLocation: time.Local,
		Writer:       w,
	}

	log.Debug().
		Str("level", c.Level).
		Bool("console", c.Console.Enabled).
		Bool("file", c.File.Enabled).
		Msg("Logger configured")
	return nil
}

// New creates a logger by copying the global DefaultLogger and adding
// a component field. Call it after Configure so the copy carries the
// user configuration.
func New(component string) log.Logger {
	bl := &log.DefaultLogger
	return log.Logger{
		Level:        bl.Level,
		Caller:       0,
		TimeField:    bl.TimeField,
		TimeFormat:   bl.TimeFormat,
		TimeLocation: bl.TimeLocation,
		Writer:       bl.Writer,
		Context:      log.NewContext(bl.Context).Str("component", component).Value(),
	}
}
