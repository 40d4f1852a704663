package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gemmad/internal/locator"
)

func newLocateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the model bundle path that would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates := opts.cfg.Candidates()
			loc := locator.New(candidates, opts.log)
			if path, ok := loc.Locate(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			out := cmd.ErrOrStderr()
			fmt.Fprintln(out, "model not found; searched:")
			for _, c := range loc.Candidates() {
				fmt.Fprintf(out, "  %s\n", c.Path)
			}
			return fmt.Errorf("model %s not found", opts.cfg.ModelFile)
		},
	}
}
