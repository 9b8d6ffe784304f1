package planner

import (
	"time"

	"github.com/dsh2/subsurface/internal/dive"
)

// MaxPoints is the largest waypoint sequence the controller accepts.
const MaxPoints = 100

// DataPoint is one waypoint of a plan.
type DataPoint struct {
	Depth    int         // mm, reached at the end of the segment
	Duration int         // seconds spent on the segment leading to this point
	Runtime  int         // seconds since dive start, derived
	Gas      dive.GasMix // breathed on the segment
	Setpoint int         // mbar, 0 on open circuit
	// Entered is true for user input and false for points inserted by the
	// recalculation engine.
	Entered bool
}

// Settings are the plan-level parameters. Depths are mm, rates mm/min,
// pressures mbar, SAC ml/min and gradient factors percent.
type Settings struct {
	GFHigh          int
	GFLow           int
	SurfacePressure int
	BottomSAC       int
	DecoSAC         int
	AscRate75       int
	AscRate50       int
	AscRateStops    int
	AscRateLast6m   int
	DescRate        int
	BottomPO2       int
	DecoPO2         int
	StartTime       time.Time

	LastStop6m    bool
	DropStoneMode bool
	Verbatim      bool

	// Presentation toggles; they never change the computed profile.
	DisplayRuntime     bool
	DisplayDuration    bool
	DisplayTransitions bool
}

// DefaultSettings returns the stock planner preferences.
func DefaultSettings() Settings {
	return Settings{
		GFHigh:          75,
		GFLow:           30,
		SurfacePressure: dive.StandardPressure,
		BottomSAC:       20000,
		DecoSAC:         17000,
		AscRate75:       9000,
		AscRate50:       6000,
		AscRateStops:    6000,
		AscRateLast6m:   1000,
		DescRate:        18000,
		BottomPO2:       1400,
		DecoPO2:         1600,
		DisplayRuntime:  true,
	}
}

// Validate checks every numeric setting for a usable range.
func (s Settings) Validate() error {
	switch {
	case s.GFLow < 1 || s.GFLow > 150, s.GFHigh < 1 || s.GFHigh > 150:
		return ErrInvalidSetting
	case s.SurfacePressure < 500 || s.SurfacePressure > 1100:
		return ErrInvalidSetting
	case s.BottomSAC <= 0 || s.DecoSAC <= 0:
		return ErrInvalidSetting
	case s.AscRate75 <= 0 || s.AscRate50 <= 0 || s.AscRateStops <= 0 || s.AscRateLast6m <= 0 || s.DescRate <= 0:
		return ErrInvalidSetting
	case s.BottomPO2 <= 0 || s.DecoPO2 <= 0:
		return ErrInvalidSetting
	}
	return nil
}

// DivePlan is the snapshot handed to the recalculation engine.
type DivePlan struct {
	When     time.Time
	Salinity int
	Mode     dive.Mode
	// Deco asks the engine for an ascent schedule after the last point.
	// It is set in PLAN mode and cleared in ADD mode.
	Deco     bool
	Settings Settings
	Points   []DataPoint
}

// GasUse counts the waypoints breathing from one cylinder. Cylinder is -1 for
// a gas that no cylinder carries.
type GasUse struct {
	Cylinder int
	Gas      dive.GasMix
	Count    int
}
