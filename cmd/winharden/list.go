package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available hardening procedures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := make(map[string]bool, len(a.cfg.Procedures))
			for _, n := range a.cfg.Procedures {
				enabled[n] = true
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tDEFAULT\tDESCRIPTION")
			for _, p := range a.dispatcher().Procedures() {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.Name(), p.Category(), enabled[p.Name()], p.Description())
			}
			return tw.Flush()
		},
	}
}
