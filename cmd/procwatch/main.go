package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ja7ad/procwatch/internal/config"
	"github.com/ja7ad/procwatch/internal/logger"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags and what they resolve to.
type globals struct {
	configPath string
	logLevel   string

	cfg *config.AppConfig
	log log.Logger
}

func main() {
	g := &globals{}

	root := &cobra.Command{
		Use:   "procwatch",
		Short: "Process information aggregation and monitoring",
		Long: `procwatch gathers per-process information from several sources (the OS
process table, the running-application registry, resource counters, task
counters and command lines), merges them into one record per process and
shows them as a filtered, sorted table.

* GitHub: https://github.com/ja7ad/procwatch

Examples:
  procwatch snapshot --sort memory -n 20
  procwatch snapshot -q firefox -o json
  procwatch watch -i 1s --metrics
  procwatch kill 12345 30000..30004
  procwatch config procwatch.toml`,
		SilenceUsage:      true,
		PersistentPreRunE: g.load,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to a TOML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	root.AddCommand(
		newSnapshotCmd(g),
		newWatchCmd(g),
		newKillCmd(g),
		newConfigCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("procwatch failed")
		os.Exit(1)
	}
}

// load reads the configuration, applies flag overrides and sets up logging.
func (g *globals) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("%w (generate one with `procwatch config %s`)", err, g.configPath)
		}
		return err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	g.cfg = cfg
	g.log = logger.New("cli")
	g.log.Debug().Str("command", cmd.Name()).Str("config", g.configPath).Msg("Configuration loaded")
	return nil
}
