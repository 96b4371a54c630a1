// Package procedures defines hardening procedures and the dispatcher that
// applies them in order.
package procedures

import (
	"context"

	"github.com/rs/zerolog"
)

// Category groups procedures the way the hardening categories are presented.
type Category string

const (
	CategoryDefender   Category = "microsoft_defender"
	CategoryFirewall   Category = "country_ip_blocking"
	CategoryLockScreen Category = "lock_screen"
)

// Procedure is a single, fixed hardening step.
type Procedure interface {
	// Name returns the unique name of the procedure.
	Name() string
	Category() Category
	Description() string
	// Apply performs the procedure. It runs to completion before the next
	// procedure starts.
	Apply(ctx context.Context) error
}

// Base carries the identity and logger shared by every procedure.
type Base struct {
	name        string
	category    Category
	description string
	logger      zerolog.Logger
}

// NewBase creates a Base whose logger is tagged with the procedure name.
func NewBase(name string, category Category, description string, logger zerolog.Logger) Base {
	return Base{
		name:        name,
		category:    category,
		description: description,
		logger:      logger.With().Str("procedure", name).Logger(),
	}
}

func (b Base) Name() string             { return b.name }
func (b Base) Category() Category       { return b.category }
func (b Base) Description() string      { return b.description }
func (b *Base) Logger() *zerolog.Logger { return &b.logger }
