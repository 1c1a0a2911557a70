package main

import (
	"fmt"

	"github.com/ja7ad/procwatch/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [PATH]",
		Short: "Write an example configuration file",
		Args:  cobra.MaximumNArgs(1),
		// Writing the example must not depend on an existing config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "procwatch.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateExampleConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
