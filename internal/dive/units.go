package dive

import "fmt"

// Environment defaults used when a dive carries no explicit value.
const (
	StandardPressure = 1013  // mbar
	SeaWater         = 10300 // salinity, g/10L
	FreshWater       = 10000 // salinity, g/10L
)

// gravity in mm/s^2 scaled so that 1 m of fresh water is ~98 mbar.
const gravity = 9.80665

// DepthToPressure returns absolute pressure in mbar at depth mm.
func DepthToPressure(depth, surface, salinity int) int {
	if surface <= 0 {
		surface = StandardPressure
	}
	if salinity <= 0 {
		salinity = SeaWater
	}
	// salinity g/10L -> kg/m^3 is /10; Pa -> mbar is /100.
	return surface + int(float64(depth)/1000*float64(salinity)/10*gravity/100+0.5)
}

// PressureToDepth is the inverse of DepthToPressure.
func PressureToDepth(pressure, surface, salinity int) int {
	if surface <= 0 {
		surface = StandardPressure
	}
	if salinity <= 0 {
		salinity = SeaWater
	}
	if pressure <= surface {
		return 0
	}
	return int(float64(pressure-surface) * 100 / gravity / (float64(salinity) / 10) * 1000)
}

// Meters formats a depth in mm as meters with no decimals.
func Meters(mm int) string {
	return fmt.Sprintf("%dm", (mm+500)/1000)
}

// Minutes formats seconds as whole minutes, rounding up partial minutes the
// way dive tables do.
func Minutes(sec int) int {
	return (sec + 59) / 60
}
