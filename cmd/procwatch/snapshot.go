package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(g *globals) *cobra.Command {
	var (
		vf     viewFlags
		warmup time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one snapshot and print it",
		Long: `Capture one snapshot and print it.

CPU% is a rate, so it needs two samples of each process. With --warmup > 0 a
first snapshot primes the counters and the second one is printed; with
--warmup 0 CPU% falls back to the lifetime average where the source has one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := vf.state()
			if err != nil {
				return err
			}
			render, err := vf.renderer()
			if err != nil {
				return err
			}

			stk, err := newStack(g.cfg, nil)
			if err != nil {
				return err
			}
			snap, err := capture(cmd.Context(), stk, warmup)
			if err != nil {
				return err
			}
			g.log.Debug().Uint64("seq", snap.Seq).Int("records", snap.Len()).Int("skipped", snap.Skipped).Msg("Snapshot captured")

			if err := render(cmd.OutOrStdout(), vf.apply(snap, st)); err != nil {
				return err
			}
			if snap.Skipped > 0 && vf.output == "table" {
				fmt.Fprintf(cmd.ErrOrStderr(), "# %d processes not probed (cap %d)\n", snap.Skipped, stk.builder.Config().Cap)
			}
			return nil
		},
	}

	vf.register(cmd)
	cmd.Flags().DurationVar(&warmup, "warmup", time.Second, "delay between a priming snapshot and the printed one (0 = single snapshot)")
	return cmd
}

// capture builds one snapshot, optionally after a priming build.
func capture(ctx context.Context, stk *stack, warmup time.Duration) (process.Snapshot, error) {
	if warmup > 0 {
		if s := stk.builder.Build(ctx); s.Err != nil {
			return s, s.Err
		}
		select {
		case <-ctx.Done():
			return process.Snapshot{}, ctx.Err()
		case <-time.After(warmup):
		}
	}
	s := stk.builder.Build(ctx)
	return s, s.Err
}
