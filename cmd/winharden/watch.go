package main

import (
	"context"
	"fmt"

	"github.com/lucid-vigil/winharden/pkg/config"
	"github.com/lucid-vigil/winharden/pkg/firewall"
	"github.com/lucid-vigil/winharden/pkg/logger"
	"github.com/lucid-vigil/winharden/pkg/procedures/countryip"
	"github.com/spf13/cobra"
)

func newWatchBlocklistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch-blocklist",
		Short: "Re-import the country IP block list whenever the file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listPath := a.cfg.CountryIP.ListPath
			if listPath == "" {
				return fmt.Errorf("country_ip.list_path is not configured")
			}

			if a.configPath != "" {
				// Only the log level is picked up live; restart for other changes.
				_, err := config.Watch(a.configPath, func(cfg *config.Config, err error) {
					if err != nil {
						a.logger.Error().Err(err).Msg("Configuration reload failed")
						return
					}
					logger.SetLevel(cfg.LogLevel)
					a.logger.Info().Str("log_level", cfg.LogLevel).Msg("Configuration reloaded")
				})
				if err != nil {
					return err
				}
			}

			proc := countryip.New(a.importer(), listPath, a.cfg.CountryIP.DisplayName, a.logger)
			apply := func(ctx context.Context) error {
				if a.cfg.DryRun {
					a.logger.Info().Str("procedure", proc.Name()).Msg("Dry run, skipping procedure")
					return nil
				}
				return proc.Apply(ctx)
			}

			if err := apply(cmd.Context()); err != nil {
				return err
			}
			return firewall.NewWatcher(listPath, a.debounce(), apply, a.logger).Run(cmd.Context())
		},
	}
}
