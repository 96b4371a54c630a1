package procedures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/rs/zerolog"
)

// Status is the outcome of one procedure run.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result records one procedure run.
type Result struct {
	Procedure string        `json:"procedure" yaml:"procedure"`
	Category  Category      `json:"category" yaml:"category"`
	Status    Status        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Dispatcher manages and applies hardening procedures.
type Dispatcher struct {
	procedures map[string]Procedure
	dryRun     bool
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// NewDispatcher creates a dispatcher. With dryRun set, procedures are logged
// but never applied.
func NewDispatcher(dryRun bool, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		procedures: make(map[string]Procedure),
		dryRun:     dryRun,
		logger:     logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Register adds a procedure, replacing any procedure with the same name.
func (d *Dispatcher) Register(p Procedure) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.procedures[p.Name()] = p
	d.logger.Debug().Str("procedure", p.Name()).Msg("Procedure registered")
}

// Procedures returns every registered procedure sorted by category and name.
func (d *Dispatcher) Procedures() []Procedure {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Procedure, 0, len(d.procedures))
	for _, p := range d.procedures {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category() != out[j].Category() {
			return out[i].Category() < out[j].Category()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Execute applies the named procedure.
func (d *Dispatcher) Execute(ctx context.Context, name string) Result {
	d.mu.RLock()
	p, exists := d.procedures[name]
	d.mu.RUnlock()

	if !exists {
		err := herrors.NewInvalidArgumentError("procedures.Execute", "procedure", fmt.Sprintf("'%s' not found", name))
		return Result{Procedure: name, Status: StatusFailed, Error: err.Error()}
	}

	res := Result{Procedure: name, Category: p.Category()}
	if d.dryRun {
		d.logger.Info().Str("procedure", name).Msg("Dry run, skipping procedure")
		res.Status = StatusSkipped
		return res
	}

	d.logger.Info().Str("procedure", name).Msg("Applying procedure...")
	start := time.Now()
	err := p.Apply(ctx)
	res.Duration = time.Since(start)

	if err != nil {
		d.logger.Error().Err(err).Str("procedure", name).Msg("Procedure failed")
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	d.logger.Info().Str("procedure", name).Dur("duration", res.Duration).Msg("Procedure applied")
	res.Status = StatusApplied
	return res
}

// ExecuteAll applies the named procedures one after another. A failure is
// recorded and the remaining procedures still run; cancellation of ctx stops
// the run and marks the rest as skipped.
func (d *Dispatcher) ExecuteAll(ctx context.Context, names []string) []Result {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			results = append(results, Result{Procedure: name, Status: StatusSkipped, Error: ctx.Err().Error()})
			continue
		}
		results = append(results, d.Execute(ctx, name))
	}
	return results
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}
