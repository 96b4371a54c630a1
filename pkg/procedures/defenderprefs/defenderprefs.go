// Package defenderprefs applies the Defender preferences listed in the
// configuration.
package defenderprefs

import (
	"context"

	"github.com/lucid-vigil/winharden/pkg/cim"
	"github.com/lucid-vigil/winharden/pkg/config"
	"github.com/lucid-vigil/winharden/pkg/defender"
	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/rs/zerolog"
)

const Name = "defender_preferences"

// PreferenceApplier writes preferences in order.
type PreferenceApplier interface {
	Apply(ctx context.Context, prefs []defender.Preference) error
}

// StatusGetter reads the Defender status snapshot.
type StatusGetter interface {
	GetStatus(ctx context.Context) (*cim.PropertyBag, error)
}

// Procedure sets each configured preference in order.
type Procedure struct {
	procedures.Base
	writer PreferenceApplier
	status StatusGetter
	prefs  []config.PreferenceConfig
}

// New creates the procedure. status may be nil to skip the tamper
// protection check.
func New(writer PreferenceApplier, status StatusGetter, prefs []config.PreferenceConfig, logger zerolog.Logger) *Procedure {
	return &Procedure{
		Base: procedures.NewBase(Name, procedures.CategoryDefender,
			"Apply configured Microsoft Defender preferences", logger),
		writer: writer,
		status: status,
		prefs:  prefs,
	}
}

// Convert turns configured entries into typed preferences.
func Convert(entries []config.PreferenceConfig) ([]defender.Preference, error) {
	const op = "defenderprefs.Convert"

	out := make([]defender.Preference, 0, len(entries))
	for _, e := range entries {
		kind, err := cim.ParseKind(e.Type)
		if err != nil {
			return nil, herrors.NewInvalidArgumentError(op, e.Name, err.Error())
		}
		v, err := cim.Parse(kind, e.Value)
		if err != nil {
			return nil, herrors.NewInvalidArgumentError(op, e.Name, err.Error())
		}
		out = append(out, defender.Preference{Name: e.Name, Value: v})
	}
	return out, nil
}

func (p *Procedure) Apply(ctx context.Context) error {
	prefs, err := Convert(p.prefs)
	if err != nil {
		return err
	}
	if len(prefs) == 0 {
		p.Logger().Info().Msg("No Defender preferences configured")
		return nil
	}

	p.checkTamperProtection(ctx)

	p.Logger().Info().Int("count", len(prefs)).Msg("Applying Microsoft Defender preferences")
	return p.writer.Apply(ctx, prefs)
}

func (p *Procedure) checkTamperProtection(ctx context.Context) {
	if p.status == nil {
		return
	}
	status, err := p.status.GetStatus(ctx)
	if err != nil {
		p.Logger().Warn().Err(err).Msg("Could not read Defender status")
		return
	}
	if on, ok := status.Bool("IsTamperProtected"); ok && on {
		p.Logger().Warn().Msg("Tamper protection is on; some preferences may be ignored")
	}
}
