package firewall

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/shell"
	"github.com/rs/zerolog"
)

// Options configures an Importer.
type Options struct {
	PolicyStore string // GPO store passed to -PolicyStore, "localhost" by default
	ChunkSize   int    // addresses per rule
	IncludeIPv6 bool
}

// Importer manages block rules through the NetSecurity PowerShell cmdlets.
type Importer struct {
	shell  shell.Runner
	opts   Options
	logger zerolog.Logger
}

// NewImporter creates an Importer. Zero option values fall back to the
// localhost store and 1000 addresses per rule.
func NewImporter(sh shell.Runner, opts Options, logger zerolog.Logger) *Importer {
	if opts.PolicyStore == "" {
		opts.PolicyStore = "localhost"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	return &Importer{
		shell:  sh,
		opts:   opts,
		logger: logger.With().Str("component", "firewall").Logger(),
	}
}

// BlockIPAddressListsInGroupPolicy replaces the rules named displayName in the
// policy store. With add set, the list at listPath is read and one inbound and
// one outbound block rule is created per chunk of addresses; without it the
// existing rules are only removed.
func (im *Importer) BlockIPAddressListsInGroupPolicy(ctx context.Context, displayName, listPath string, add bool) error {
	const op = "firewall.BlockIPAddressListsInGroupPolicy"

	if displayName == "" {
		return herrors.NewInvalidArgumentError(op, "displayName", "must not be empty")
	}

	var prefixes []netip.Prefix
	if add {
		var err error
		if prefixes, err = im.load(listPath); err != nil {
			return err
		}
	}

	if err := im.Remove(ctx, displayName); err != nil {
		return err
	}
	if !add {
		return nil
	}

	chunks := chunk(prefixes, im.opts.ChunkSize, maxAddressChars)
	for _, dir := range []string{"Inbound", "Outbound"} {
		for i, c := range chunks {
			if _, err := shell.PowerShell(ctx, im.shell, im.newRuleScript(displayName, dir, c)); err != nil {
				// Leave no partial rule set behind.
				if rmErr := im.Remove(ctx, displayName); rmErr != nil {
					im.logger.Error().Err(rmErr).Str("rule", displayName).Msg("Failed to remove partially created rules")
				}
				return herrors.NewExternalError(op, "New-NetFirewallRule", "", fmt.Errorf("%s rule %d/%d: %w", dir, i+1, len(chunks), err))
			}
		}
	}

	im.logger.Info().
		Str("rule", displayName).
		Int("prefixes", len(prefixes)).
		Int("rules", 2*len(chunks)).
		Msg("Block list imported into group policy firewall")
	return nil
}

// Remove deletes every rule named displayName from the policy store.
func (im *Importer) Remove(ctx context.Context, displayName string) error {
	script := fmt.Sprintf("Remove-NetFirewallRule -DisplayName %s -PolicyStore %s -ErrorAction SilentlyContinue",
		shell.Quote(displayName), shell.Quote(im.opts.PolicyStore))
	if _, err := shell.PowerShell(ctx, im.shell, script); err != nil {
		return herrors.NewExternalError("firewall.Remove", "Remove-NetFirewallRule", "", err)
	}
	im.logger.Debug().Str("rule", displayName).Msg("Existing rules removed")
	return nil
}

func (im *Importer) load(listPath string) ([]netip.Prefix, error) {
	const op = "firewall.BlockIPAddressListsInGroupPolicy"

	if listPath == "" {
		return nil, herrors.NewInvalidArgumentError(op, "listPath", "must not be empty")
	}
	if strings.Contains(listPath, "://") {
		return nil, herrors.NewInvalidArgumentError(op, "listPath", "only local files are supported")
	}

	f, err := os.Open(listPath)
	if err != nil {
		return nil, herrors.NewInvalidArgumentError(op, "listPath", err.Error())
	}
	defer f.Close()

	prefixes, err := ParseBlockList(f)
	if err != nil {
		return nil, err
	}
	if !im.opts.IncludeIPv6 {
		prefixes = IPv4Only(prefixes)
	}
	if len(prefixes) == 0 {
		return nil, herrors.NewInvalidArgumentError(op, "listPath", fmt.Sprintf("%s contains no addresses", listPath))
	}
	return prefixes, nil
}

func (im *Importer) newRuleScript(displayName, direction string, prefixes []netip.Prefix) string {
	addrs := make([]string, len(prefixes))
	for i, p := range prefixes {
		addrs[i] = p.String()
	}
	return fmt.Sprintf("New-NetFirewallRule -DisplayName %s -Group %s -Direction %s -Action Block -PolicyStore %s -RemoteAddress @(%s) | Out-Null",
		shell.Quote(displayName), shell.Quote(displayName), direction, shell.Quote(im.opts.PolicyStore), shell.QuoteList(addrs))
}

// maxAddressChars bounds the quoted address list of one rule so the whole
// powershell.exe command line stays under the 32767 character CreateProcess
// limit.
const maxAddressChars = 30000

// chunk splits ps into groups of at most size prefixes whose quoted,
// comma-separated form is at most maxChars long.
func chunk(ps []netip.Prefix, size, maxChars int) [][]netip.Prefix {
	var out [][]netip.Prefix
	start, chars := 0, 0
	for i, p := range ps {
		n := len(p.String()) + 3 // quotes and separator
		if i > start && (i-start >= size || chars+n > maxChars) {
			out = append(out, ps[start:i])
			start, chars = i, 0
		}
		chars += n
	}
	if start < len(ps) {
		out = append(out, ps[start:])
	}
	return out
}
