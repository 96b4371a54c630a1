// Package firewall imports IP block lists into firewall rules of the local
// group policy store.
package firewall

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
)

// ParseBlockList reads one IP address or CIDR range per line. Blank lines and
// lines starting with '#' are skipped, trailing comments are stripped, bare
// addresses become single-host prefixes and duplicates are dropped while
// keeping the first occurrence.
func ParseBlockList(r io.Reader) ([]netip.Prefix, error) {
	const op = "firewall.ParseBlockList"

	var prefixes []netip.Prefix
	seen := make(map[netip.Prefix]struct{})

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		p, err := parseEntry(line)
		if err != nil {
			return nil, herrors.NewFormatError(op, line, fmt.Errorf("line %d: %w", lineNo, err))
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		prefixes = append(prefixes, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read block list: %w", err)
	}
	return prefixes, nil
}

func parseEntry(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// IPv4Only returns the IPv4 prefixes of ps.
func IPv4Only(ps []netip.Prefix) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(ps))
	for _, p := range ps {
		if p.Addr().Is4() {
			out = append(out, p)
		}
	}
	return out
}
