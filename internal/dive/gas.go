package dive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidGas is returned when a gas mix string or value cannot be used.
var ErrInvalidGas = errors.New("invalid gas mix")

// GasMix is a breathing gas described by its oxygen and helium fractions in
// permille. The remainder is nitrogen.
type GasMix struct {
	O2 int `json:"o2" toml:"o2"`
	He int `json:"he" toml:"he"`
}

// Air is the default gas for new cylinders and waypoints.
var Air = GasMix{O2: 209}

// Oxygen is pure O2.
var Oxygen = GasMix{O2: 1000}

// N2 returns the nitrogen fraction in permille.
func (g GasMix) N2() int {
	return 1000 - g.O2 - g.He
}

// IsAir reports whether g is (close enough to) air.
func (g GasMix) IsAir() bool {
	return g.He == 0 && g.O2 >= 205 && g.O2 <= 210
}

// Validate checks that the fractions are physically meaningful.
func (g GasMix) Validate() error {
	if g.O2 <= 0 || g.O2 > 1000 {
		return fmt.Errorf("%w: oxygen %d‰ out of range", ErrInvalidGas, g.O2)
	}
	if g.He < 0 || g.O2+g.He > 1000 {
		return fmt.Errorf("%w: helium %d‰ out of range", ErrInvalidGas, g.He)
	}
	return nil
}

// Name returns the conventional short name: "air", "oxygen", "EAN32" or
// "18/45" for trimix.
func (g GasMix) Name() string {
	switch {
	case g.IsAir():
		return "air"
	case g.O2 == 1000:
		return "oxygen"
	case g.He == 0:
		return fmt.Sprintf("EAN%d", (g.O2+5)/10)
	default:
		return fmt.Sprintf("%d/%d", (g.O2+5)/10, (g.He+5)/10)
	}
}

// String is Name.
func (g GasMix) String() string {
	return g.Name()
}

// ParseGasMix accepts the names produced by Name plus a few common aliases
// ("o2", "nx32", "ean 32", "32", "32%", "tx18/45").
func ParseGasMix(s string) (GasMix, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, " ", "")
	switch v {
	case "":
		return GasMix{}, fmt.Errorf("%w: empty", ErrInvalidGas)
	case "air":
		return Air, nil
	case "oxygen", "o2":
		return Oxygen, nil
	}

	for _, prefix := range []string{"ean", "nx", "tx"} {
		v = strings.TrimPrefix(v, prefix)
	}
	v = strings.TrimSuffix(v, "%")

	o2s, hes, trimix := strings.Cut(v, "/")
	o2, err := strconv.Atoi(o2s)
	if err != nil {
		return GasMix{}, fmt.Errorf("%w: %q", ErrInvalidGas, s)
	}
	g := GasMix{O2: o2 * 10}
	if trimix {
		he, err := strconv.Atoi(hes)
		if err != nil {
			return GasMix{}, fmt.Errorf("%w: %q", ErrInvalidGas, s)
		}
		g.He = he * 10
	}
	if g.O2 == 210 && g.He == 0 {
		g = Air
	}
	if err := g.Validate(); err != nil {
		return GasMix{}, err
	}
	return g, nil
}

// MOD returns the maximum operating depth in mm for the given pO2 limit
// (mbar) at the given surface pressure (mbar) and salinity.
func (g GasMix) MOD(po2, surface, salinity int) int {
	if g.O2 <= 0 {
		return 0
	}
	amb := po2 * 1000 / g.O2
	if amb <= surface {
		return 0
	}
	return PressureToDepth(amb, surface, salinity)
}
