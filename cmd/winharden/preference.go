package main

import (
	"fmt"

	"github.com/lucid-vigil/winharden/pkg/cim"
	"github.com/spf13/cobra"
)

func newSetPreferenceCmd(a *app) *cobra.Command {
	var typ string
	var strict bool
	cmd := &cobra.Command{
		Use:   "set-preference NAME VALUE",
		Short: "Set a single Microsoft Defender preference",
		Example: `  winharden set-preference EnableNetworkProtection 1 --type byte
  winharden set-preference ExclusionExtension "tmp,log" --type "string[]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := cim.ParseKind(typ)
			if err != nil {
				return err
			}
			value, err := cim.Parse(kind, args[1])
			if err != nil {
				return fmt.Errorf("value for %s: %w", args[0], err)
			}
			return a.preferenceWriter(strict).SetPreference(cmd.Context(), args[0], value)
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "string", "Value type: string|bool|int32|double|float|string[]|byte|uint16")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of warning when Defender rejects the preference")
	return cmd
}
