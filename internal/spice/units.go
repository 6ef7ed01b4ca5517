package spice

import (
	"regexp"
	"strconv"
	"strings"

	verrors "vlab/internal/errors"
)

// SPICE magnitude suffixes. Longest suffix wins so "meg" is checked before
// "m"; suffix matching is case-insensitive per SPICE convention.
var unitMultipliers = map[string]float64{
	"t":   1e12,
	"g":   1e9,
	"meg": 1e6,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

// Time suffixes used in .tran directives ("1us", "5ms"). Bare magnitude
// letters ("1u") are accepted too, as ngspice treats them.
var timeMultipliers = map[string]float64{
	"s":  1,
	"ms": 1e-3,
	"us": 1e-6,
	"ns": 1e-9,
	"ps": 1e-12,
	"fs": 1e-15,
	"m":  1e-3,
	"u":  1e-6,
	"n":  1e-9,
	"p":  1e-12,
	"f":  1e-15,
}

var valuePattern = regexp.MustCompile(`^([\d.eE+-]+)\s*([a-zA-Z]+)?$`)

// ParseValue converts a SPICE component value ("4.7k", "100n", "1meg") to
// its float form. A bare number parses as-is. Trailing unit names after the
// multiplier ("10kohm", "5uF") are tolerated, as ngspice does.
func ParseValue(s string) (float64, error) {
	return parseSuffixed(s, unitMultipliers)
}

// ParseDuration converts a SPICE time value ("1us", "5ms", "0.01") to
// seconds.
func ParseDuration(s string) (float64, error) {
	return parseSuffixed(s, timeMultipliers)
}

func parseSuffixed(s string, multipliers map[string]float64) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	m := valuePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, verrors.ErrInvalidNetlist.GenWithStackByArgs("bad value " + strconv.Quote(s))
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, verrors.WrapError(verrors.ErrInvalidNetlist, err, "bad value "+strconv.Quote(s))
	}

	suffix := m[2]
	if suffix == "" {
		return num, nil
	}
	// Longest matching prefix of the suffix wins (meg vs m, ms vs m).
	best := ""
	for unit := range multipliers {
		if strings.HasPrefix(suffix, unit) && len(unit) > len(best) {
			best = unit
		}
	}
	if best == "" {
		// Unknown suffix ("v", "ohm", "hz" etc.) is unit decoration, not a
		// multiplier.
		return num, nil
	}
	return num * multipliers[best], nil
}
