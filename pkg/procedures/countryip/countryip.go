// Package countryip blocks the IP ranges of countries on the State Sponsors of
// Terrorism list in the group policy firewall.
package countryip

import (
	"context"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/procedures"
	"github.com/rs/zerolog"
)

const (
	Name = "country_ip_blocking"

	DefaultDisplayName = "State Sponsors of Terrorism IP range blocking"
)

// Importer is the firewall capability the procedure needs.
type Importer interface {
	BlockIPAddressListsInGroupPolicy(ctx context.Context, displayName, listPath string, add bool) error
}

// Procedure imports a local copy of the list.
type Procedure struct {
	procedures.Base
	importer    Importer
	listPath    string
	displayName string
}

// New creates the procedure. An empty displayName uses DefaultDisplayName.
func New(importer Importer, listPath, displayName string, logger zerolog.Logger) *Procedure {
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	return &Procedure{
		Base: procedures.NewBase(Name, procedures.CategoryFirewall,
			"Block inbound and outbound traffic to State Sponsors of Terrorism IP ranges", logger),
		importer:    importer,
		listPath:    listPath,
		displayName: displayName,
	}
}

func (p *Procedure) Apply(ctx context.Context) error {
	if p.listPath == "" {
		return herrors.NewInvalidArgumentError("countryip.Apply", "country_ip.list_path", "no block list configured")
	}

	p.Logger().Info().Msg("Blocking IP ranges of countries in State Sponsors of Terrorism list")
	return p.importer.BlockIPAddressListsInGroupPolicy(ctx, p.displayName, p.listPath, true)
}
