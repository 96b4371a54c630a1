package cim

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DMTF datetime: yyyymmddHHMMSS.mmmmmmsUUU, where s is '+' or '-' and UUU is
// the UTC offset in minutes.
const dmtfLen = 25

// IsDMTF reports whether s has the shape of a DMTF timestamp. It does not
// validate field ranges.
func IsDMTF(s string) bool {
	return len(s) == dmtfLen && s[14] == '.' && (s[21] == '+' || s[21] == '-')
}

// ParseDMTF converts a DMTF timestamp into a time.Time carrying the encoded
// UTC offset as a fixed zone. A field made entirely of '*' is unspecified and
// takes its lowest value; an unspecified offset is UTC.
func ParseDMTF(s string) (time.Time, error) {
	if !IsDMTF(s) {
		return time.Time{}, fmt.Errorf("invalid DMTF datetime format: %s", s)
	}

	fields := []struct {
		from, to int
		min, max int
		unset    int
	}{
		{0, 4, 0, 9999, 1}, // year
		{4, 6, 1, 12, 1},   // month
		{6, 8, 1, 31, 1},   // day
		{8, 10, 0, 23, 0},  // hour
		{10, 12, 0, 59, 0}, // minute
		{12, 14, 0, 60, 0}, // second, leap second allowed
		{15, 21, 0, 999999, 0},
		{22, 25, 0, 999, 0},
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		part := s[f.from:f.to]
		if wildcard(part) {
			vals[i] = f.unset
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || part[0] == '+' || part[0] == '-' {
			return time.Time{}, fmt.Errorf("invalid DMTF datetime format: %s", s)
		}
		if n < f.min || n > f.max {
			return time.Time{}, fmt.Errorf("invalid DMTF datetime format: %s: field %q out of range", s, part)
		}
		vals[i] = n
	}

	year, month, day := vals[0], time.Month(vals[1]), vals[2]
	if day > daysIn(month, year) {
		return time.Time{}, fmt.Errorf("invalid DMTF datetime format: %s: day out of range", s)
	}

	offset := vals[7] * 60
	if s[21] == '-' {
		offset = -offset
	}
	zone := time.UTC
	if offset != 0 {
		zone = time.FixedZone("", offset)
	}

	return time.Date(year, month, day, vals[3], vals[4], vals[5], vals[6]*1000, zone), nil
}

// FormatDMTF renders t in DMTF form using t's own UTC offset, truncated to
// whole minutes.
func FormatDMTF(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s.%06d%c%03d", t.Format("20060102150405"), t.Nanosecond()/1000, sign, offset/60)
}

func wildcard(part string) bool {
	return strings.Trim(part, "*") == ""
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
