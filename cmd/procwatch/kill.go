package main

import (
	"errors"
	"fmt"

	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/ja7ad/procwatch/pkg/system/util"
	"github.com/spf13/cobra"
)

func newKillCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "kill PID|PID..PID...",
		Short: "Forcibly terminate processes",
		Long: `Send an uncatchable kill to each pid. A pid that is already gone counts
as terminated. Every pid is attempted; the command fails if any could not
be killed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pids, err := util.ParsePIDs(args)
			if err != nil {
				return err
			}

			var errs []error
			for _, pid := range pids {
				if err := probe.Terminate(pid); err != nil {
					g.log.Warn().Err(err).Int("pid", int(pid)).Msg("Kill failed")
					errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "killed %d\n", pid)
			}
			return errors.Join(errs...)
		},
	}
}
