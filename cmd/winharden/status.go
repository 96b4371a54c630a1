package main

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var output string
	var fields []string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the Microsoft Defender computer status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bag, err := a.statusReader().GetStatus(cmd.Context())
			if err != nil {
				return err
			}
			bag, err = filterFields(bag, fields)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, bag)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: json|yaml")
	cmd.Flags().StringSliceVarP(&fields, "field", "f", nil, "Only show properties matching these glob patterns (e.g. 'Antivirus*')")
	return cmd
}
