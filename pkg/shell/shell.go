// Package shell runs external programs for the hardening procedures.
package shell

import (
	"context"
	"os/exec"
	"strings"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner executes a program and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	logger zerolog.Logger
}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger.With().Str("component", "shell").Logger()}
}

// Run executes name with args. A non-zero exit is returned as an
// ExternalError carrying the command output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Debug().Str("command", name).Strs("args", args).Msg("Running command")

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, herrors.NewExternalError("shell.Run", name, strings.TrimSpace(string(out)), err)
	}
	return out, nil
}

// PowerShell runs script through Windows PowerShell without loading a profile.
func PowerShell(ctx context.Context, r Runner, script string) ([]byte, error) {
	return r.Run(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass",
		"-Command", script)
}

// Quote returns s as a single-quoted PowerShell string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteList returns ss as a comma-separated PowerShell array of literals.
func QuoteList(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = Quote(s)
	}
	return strings.Join(quoted, ",")
}
