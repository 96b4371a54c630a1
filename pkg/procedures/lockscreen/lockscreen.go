// Package lockscreen requires Ctrl+Alt+Del on the lock screen through the
// bundled security baseline template.
package lockscreen

import (
	"context"
	"path/filepath"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/lgpo"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/rs/zerolog"
)

const Name = "lockscreen_ctrl_alt_del"

// TemplateRunner merges a policy template into the local GPO.
type TemplateRunner interface {
	Run(ctx context.Context, path string, ft lgpo.FileType) error
}

// TemplatePath returns the location of the policy template under resources.
func TemplatePath(resources string) string {
	return filepath.Join(resources, "Security-Baselines-X", "Lock Screen Policies", "Enable CTRL + ALT + DEL", "GptTmpl.inf")
}

// Procedure applies the Enable CTRL + ALT + DEL template.
type Procedure struct {
	procedures.Base
	runner    TemplateRunner
	resources string
}

func New(runner TemplateRunner, resources string, logger zerolog.Logger) *Procedure {
	return &Procedure{
		Base: procedures.NewBase(Name, procedures.CategoryLockScreen,
			"Require CTRL + ALT + DEL on the lock screen", logger),
		runner:    runner,
		resources: resources,
	}
}

func (p *Procedure) Apply(ctx context.Context) error {
	if p.resources == "" {
		return herrors.NewInvalidArgumentError("lockscreen.Apply", "resources_path", "must not be empty")
	}

	p.Logger().Info().Msg("Applying the Enable CTRL + ALT + DEL policy")
	return p.runner.Run(ctx, TemplatePath(p.resources), lgpo.INF)
}
