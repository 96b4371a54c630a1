// Package defender reads Microsoft Defender's computer status and writes its
// preferences through the management subsystem.
package defender

import (
	"context"
	"fmt"

	"github.com/lucid-vigil/winharden/pkg/cim"
	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/wmi"
	"github.com/rs/zerolog"
)

const (
	Namespace       = `ROOT\Microsoft\Windows\Defender`
	StatusClass     = "MSFT_MpComputerStatus"
	PreferenceClass = "MSFT_MpPreference"

	statusQuery = "SELECT * FROM " + StatusClass
	updateHint  = "You might need to update your OS first"
)

// StatusReader fetches the MSFT_MpComputerStatus snapshot.
type StatusReader struct {
	client wmi.Client
	logger zerolog.Logger
}

// NewStatusReader creates a reader on top of client.
func NewStatusReader(client wmi.Client, logger zerolog.Logger) *StatusReader {
	return &StatusReader{
		client: client,
		logger: logger.With().Str("component", "defender_status").Logger(),
	}
}

// GetStatus returns the first MSFT_MpComputerStatus record as a property bag.
// A failing query or an empty result is a QueryError; a date field that is not
// a valid DMTF timestamp is a FormatError.
func (r *StatusReader) GetStatus(ctx context.Context) (*cim.PropertyBag, error) {
	const op = "defender.GetStatus"

	rows, err := r.client.Query(ctx, Namespace, statusQuery)
	if err != nil {
		return nil, herrors.NewQueryError(op, fmt.Sprintf("query %s failed", StatusClass), err)
	}
	if len(rows) == 0 {
		return nil, herrors.NewQueryError(op, fmt.Sprintf("no %s instance returned", StatusClass), nil)
	}

	bag, err := wmi.ToPropertyBag(rows[0])
	if err != nil {
		return nil, err
	}

	r.logger.Debug().Int("properties", bag.Len()).Msg("Defender status retrieved")
	return bag, nil
}

// Preference is a single MSFT_MpPreference assignment.
type Preference struct {
	Name  string
	Value cim.Value
}

// Supported reports whether k can be passed to MSFT_MpPreference.Set.
func Supported(k cim.Kind) bool {
	switch k {
	case cim.KindString, cim.KindBool, cim.KindInt32, cim.KindFloat64,
		cim.KindFloat32, cim.KindStringArray, cim.KindByte, cim.KindUint16:
		return true
	}
	return false
}

// PreferenceWriter sets Defender preferences one at a time.
type PreferenceWriter struct {
	client wmi.Client
	logger zerolog.Logger

	// Strict makes SetPreference return subsystem failures instead of
	// logging them.
	Strict bool
}

// NewPreferenceWriter creates a non-strict writer on top of client.
func NewPreferenceWriter(client wmi.Client, logger zerolog.Logger) *PreferenceWriter {
	return &PreferenceWriter{
		client: client,
		logger: logger.With().Str("component", "defender_preferences").Logger(),
	}
}

// SetPreference calls MSFT_MpPreference.Set with the single parameter name.
//
// Null values, empty names and unsupported kinds are rejected before any call
// is made. A failure of the call itself is logged as a warning and nil is
// returned so that callers keep applying independent settings; set Strict to
// receive the error instead.
func (w *PreferenceWriter) SetPreference(ctx context.Context, name string, value cim.Value) error {
	const op = "defender.SetPreference"

	if name == "" {
		return herrors.NewInvalidArgumentError(op, "name", "must not be empty")
	}
	if value.IsNull() {
		return herrors.NewInvalidArgumentError(op, "value", fmt.Sprintf("no value given for %s", name))
	}
	if !Supported(value.Kind()) {
		return herrors.NewUnsupportedTypeError(op, value.Kind().String())
	}

	err := w.client.ExecMethod(ctx, Namespace, PreferenceClass, "Set", []wmi.Param{{Name: name, Value: value}})
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("preference", name).
			Str("value", value.String()).
			Str("type", value.Kind().String()).
			Msgf("Failed to set Defender preference %s. %s", name, updateHint)
		if w.Strict {
			return herrors.NewExternalError(op, PreferenceClass+".Set", "", err)
		}
		return nil
	}

	w.logger.Info().
		Str("preference", name).
		Str("value", value.String()).
		Str("type", value.Kind().String()).
		Msg("Defender preference set")
	return nil
}

// Apply sets each preference in order. Validation errors stop the run; call
// failures follow the writer's Strict setting.
func (w *PreferenceWriter) Apply(ctx context.Context, prefs []Preference) error {
	for _, p := range prefs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.SetPreference(ctx, p.Name, p.Value); err != nil {
			return err
		}
	}
	return nil
}
