package main

import (
	"github.com/lucid-vigil/winharden/pkg/hostinfo"
	"github.com/spf13/cobra"
)

func newHostCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Show facts about this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := hostinfo.Collect(cmd.Context())
			if err != nil {
				if info == nil {
					return err
				}
				a.logger.Warn().Err(err).Msg("Host info is incomplete")
			}
			return writeOutput(cmd.OutOrStdout(), output, info)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: json|yaml")
	return cmd
}
