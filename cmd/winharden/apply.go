package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lucid-vigil/winharden/pkg/hostinfo"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	var force bool
	var output string
	cmd := &cobra.Command{
		Use:   "apply [PROCEDURE...]",
		Short: "Apply hardening procedures (default: the configured list)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && !a.cfg.DryRun && !hostinfo.IsAdmin() {
				return fmt.Errorf("administrator privileges are required (use --force to try anyway)")
			}

			names := args
			if len(names) == 0 {
				names = a.cfg.Procedures
			}
			results := a.dispatcher().ExecuteAll(cmd.Context(), names)

			if output != "" {
				if err := writeOutput(cmd.OutOrStdout(), output, results); err != nil {
					return err
				}
			} else {
				printResults(cmd, results)
			}

			if n := procedures.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d procedures failed", n, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Run without administrator privileges")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Print results as json|yaml instead of a table")
	return cmd
}

func printResults(cmd *cobra.Command, results []procedures.Result) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCEDURE\tSTATUS\tDURATION\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Procedure, r.Status, r.Duration.Round(time.Millisecond), r.Error)
	}
	tw.Flush()
}
