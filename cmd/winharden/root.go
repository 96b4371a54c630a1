package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lucid-vigil/winharden/pkg/config"
	"github.com/lucid-vigil/winharden/pkg/defender"
	"github.com/lucid-vigil/winharden/pkg/firewall"
	"github.com/lucid-vigil/winharden/pkg/lgpo"
	"github.com/lucid-vigil/winharden/pkg/logger"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/lucid-vigil/winharden/pkg/procedures/countryip"
	"github.com/lucid-vigil/winharden/pkg/procedures/defenderprefs"
	"github.com/lucid-vigil/winharden/pkg/procedures/lockscreen"
	"github.com/lucid-vigil/winharden/pkg/shell"
	"github.com/lucid-vigil/winharden/pkg/wmi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	configPath string
	logLevel   string
	dryRun     bool

	cfg    *config.Config
	logger zerolog.Logger
	runID  string
	wmi    wmi.Client
	shell  shell.Runner
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "winharden",
		Short:         "winharden: Windows security hardening",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate("winharden {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to winharden.yaml (default: search . and %ProgramData%\\winharden)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log_level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "Log procedures without applying them")

	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newSetPreferenceCmd(a))
	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newHostCmd(a))
	cmd.AddCommand(newWatchBlocklistCmd(a))

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfigFrom(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = a.dryRun
	}
	a.cfg = cfg

	// Logs go to stderr so command output on stdout stays machine readable.
	base := logger.InitLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	a.runID = uuid.NewString()
	a.logger = base.With().Str("run_id", a.runID).Logger()
	a.wmi = wmi.NewClient()
	a.shell = shell.NewExecRunner(a.logger)

	cli := logger.Component(a.logger, "cli")
	cli.Debug().
		Str("command", cmd.CommandPath()).
		Bool("dry_run", cfg.DryRun).
		Msg("Configuration loaded")
	return nil
}

func (a *app) statusReader() *defender.StatusReader {
	return defender.NewStatusReader(a.wmi, a.logger)
}

func (a *app) preferenceWriter(strict bool) *defender.PreferenceWriter {
	w := defender.NewPreferenceWriter(a.wmi, a.logger)
	w.Strict = strict || a.cfg.Defender.Strict
	return w
}

func (a *app) importer() *firewall.Importer {
	return firewall.NewImporter(a.shell, firewall.Options{
		PolicyStore: a.cfg.Firewall.PolicyStore,
		ChunkSize:   a.cfg.Firewall.ChunkSize,
		IncludeIPv6: a.cfg.Firewall.IncludeIPv6,
	}, a.logger)
}

func (a *app) dispatcher() *procedures.Dispatcher {
	d := procedures.NewDispatcher(a.cfg.DryRun, a.logger)
	d.Register(countryip.New(a.importer(), a.cfg.CountryIP.ListPath, a.cfg.CountryIP.DisplayName, a.logger))
	d.Register(lockscreen.New(lgpo.NewRunner(a.cfg.LGPOPath(), a.cfg.LGPO.Timeout, a.shell, a.logger), a.cfg.ResourcesPath, a.logger))
	d.Register(defenderprefs.New(a.preferenceWriter(false), a.statusReader(), a.cfg.Defender.Preferences, a.logger))
	return d
}

func (a *app) debounce() time.Duration {
	if a.cfg.Firewall.Debounce <= 0 {
		return 2 * time.Second
	}
	return a.cfg.Firewall.Debounce
}
