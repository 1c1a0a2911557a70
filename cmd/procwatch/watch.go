package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ja7ad/procwatch/internal/logger"
	"github.com/ja7ad/procwatch/pkg/metrics"
	"github.com/ja7ad/procwatch/pkg/monitor"
	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/snapshot"
	"github.com/ja7ad/procwatch/pkg/view"
	"github.com/spf13/cobra"
)

type watchOpts struct {
	samples  int
	interval time.Duration
	metrics  bool
	listen   string
}

func newWatchCmd(g *globals) *cobra.Command {
	var (
		vf viewFlags
		o  watchOpts
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh snapshots on an interval and print each one",
		Long: `Run the monitor loop and print the filtered view after every refresh.
Ctrl-C stops the loop. With --metrics, build statistics are served in the
Prometheus text format while watching.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("metrics") {
				g.cfg.Metrics.Enabled = o.metrics
			}
			if o.listen != "" {
				g.cfg.Metrics.ListenAddress = o.listen
			}
			if o.interval <= 0 {
				o.interval = g.cfg.Monitor.Interval.Duration
			}
			return runWatch(cmd.Context(), g, vf, o, cmd.OutOrStdout())
		},
	}

	vf.register(cmd)
	cmd.Flags().IntVarP(&o.samples, "samples", "s", 0, "number of snapshots to print (0 = run until Ctrl-C)")
	cmd.Flags().DurationVarP(&o.interval, "interval", "i", 0, "refresh interval (0 = monitor.interval from config)")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "serve Prometheus metrics while watching")
	cmd.Flags().StringVar(&o.listen, "listen", "", "metrics listen address (default metrics.listen_address)")
	return cmd
}

func runWatch(ctx context.Context, g *globals, vf viewFlags, o watchOpts, out io.Writer) error {
	st, err := vf.state()
	if err != nil {
		return err
	}
	render, err := vf.renderer()
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var obs snapshot.Observer
	if g.cfg.Metrics.Enabled {
		rec := metrics.NewRecorder(nil)
		obs = rec
		srv := serveMetrics(g.cfg.Metrics.ListenAddress, g.cfg.Metrics.Path, rec, stop)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				g.log.Error().Err(err).Msg("Error shutting down metrics server")
			}
		}()
	}

	stk, err := newStack(g.cfg, obs)
	if err != nil {
		return err
	}

	snaps := make(chan process.Snapshot, 1)
	mon := monitor.New(stk.builder,
		monitor.WithInterval(o.interval),
		monitor.WithLogger(logger.New("monitor")),
		monitor.OnSnapshot(func(s process.Snapshot) {
			// keep only the newest if the printer falls behind
			select {
			case snaps <- s:
			default:
				select {
				case <-snaps:
				default:
				}
				snaps <- s
			}
		}),
	)
	mon.Start(ctx)
	defer mon.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			g.log.Info().Int("printed", printed).Msg("Watch interrupted")
			printSummary(out, stk, printed, o.interval)
			return nil
		case s := <-snaps:
			if err := printTick(out, s, vf, st, render); err != nil {
				return err
			}
			printed++
			if o.samples > 0 && printed >= o.samples {
				printSummary(out, stk, printed, o.interval)
				return nil
			}
		}
	}
}

func printTick(out io.Writer, s process.Snapshot, vf viewFlags, st view.State, render func(io.Writer, []process.Record) error) error {
	if vf.output == "table" {
		if s.Failed() {
			fmt.Fprintf(out, "# %s seq=%d enumeration failed: %v\n\n", s.CapturedAt.Format(time.TimeOnly), s.Seq, s.Err)
			return nil
		}
		fmt.Fprintf(out, "# %s seq=%d processes=%d skipped=%d\n",
			s.CapturedAt.Format(time.TimeOnly), s.Seq, s.Len(), s.Skipped)
	}
	if err := render(out, vf.apply(s, st)); err != nil {
		return err
	}
	if vf.output == "table" {
		fmt.Fprintln(out)
	}
	return nil
}

func printSummary(out io.Writer, stk *stack, n int, interval time.Duration) {
	if stk.energy == nil || n == 0 {
		return
	}
	avg := stk.energy.Averages()
	fmt.Fprintf(out, "energy avg (over %d snapshots of ~%s):\n", n, interval)
	fmt.Fprintf(out, "- watt (cpu):    %.3f W\n", avg.PCPU)
	fmt.Fprintf(out, "- watt (disk):   %.3f W\n", avg.PDisk)
	fmt.Fprintf(out, "- watt (ram):    %.3f W\n", avg.PRAM)
	fmt.Fprintf(out, "- watt (total):  %.3f W\n", avg.PTotal)
	fmt.Fprintf(out, "- energy:        %.3f J\n", stk.energy.EnergyCumJ())
}

// serveMetrics starts the metrics endpoint. A listener failure cancels the
// watch through stop.
func serveMetrics(addr, path string, rec *metrics.Recorder, stop context.CancelFunc) *http.Server {
	l := logger.New("metrics")

	mux := http.NewServeMux()
	mux.Handle(path, rec.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>
            <head><title>procwatch</title></head>
            <body>
            <h1>procwatch</h1>
            <p><a href="` + path + `">Metrics</a></p>
            </body>
            </html>`))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Msg("Panic recovered in metrics server, stopping watch")
				stop()
			}
		}()
		l.Info().Str("address", addr).Str("path", path).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("Metrics server failed")
			stop()
		}
	}()
	return srv
}
