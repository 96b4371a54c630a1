// Package lgpo merges policy templates into the local group policy object
// with Microsoft's LGPO utility.
package lgpo

import (
	"context"
	"fmt"
	"os"
	"time"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/shell"
	"github.com/rs/zerolog"
)

// FileType selects how LGPO interprets a template.
type FileType int

const (
	// INF is a security template (GptTmpl.inf), applied with /s.
	INF FileType = iota
	// POL is a machine registry.pol file, applied with /m.
	POL
)

func (ft FileType) String() string {
	switch ft {
	case INF:
		return "inf"
	case POL:
		return "pol"
	}
	return fmt.Sprintf("FileType(%d)", int(ft))
}

func (ft FileType) flag() (string, error) {
	switch ft {
	case INF:
		return "/s", nil
	case POL:
		return "/m", nil
	}
	return "", herrors.NewInvalidArgumentError("lgpo.Run", "fileType", ft.String())
}

// Runner invokes the LGPO executable.
type Runner struct {
	path    string
	timeout time.Duration
	shell   shell.Runner
	logger  zerolog.Logger
}

// NewRunner creates a Runner for the LGPO executable at path. A zero timeout
// disables the per-run deadline.
func NewRunner(path string, timeout time.Duration, sh shell.Runner, logger zerolog.Logger) *Runner {
	return &Runner{
		path:    path,
		timeout: timeout,
		shell:   sh,
		logger:  logger.With().Str("component", "lgpo").Logger(),
	}
}

// Run applies the template at path.
func (r *Runner) Run(ctx context.Context, path string, ft FileType) error {
	const op = "lgpo.Run"

	flag, err := ft.flag()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return herrors.NewInvalidArgumentError(op, "path", fmt.Sprintf("template %s: %v", path, err))
	}
	if _, err := os.Stat(r.path); err != nil {
		return herrors.NewInvalidArgumentError(op, "lgpo", fmt.Sprintf("executable %s: %v", r.path, err))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Debug().Str("template", path).Str("type", ft.String()).Msg("Running LGPO")
	if _, err := r.shell.Run(ctx, r.path, "/q", flag, path); err != nil {
		return herrors.NewExternalError(op, r.path, "", err)
	}

	r.logger.Info().Str("template", path).Str("type", ft.String()).Msg("Policy template applied")
	return nil
}
