// Package dive holds the dive record shared by the planner, the recalculation
// engine and the logbook: metadata, cylinders and the sample profile.
package dive

import (
	"errors"
	"slices"
	"time"
)

// MaxCylinders is the number of cylinders a single dive can carry.
const MaxCylinders = 8

// ErrTooManyCylinders is returned when a cylinder cannot be added because the
// dive already carries MaxCylinders.
var ErrTooManyCylinders = errors.New("too many cylinders")

// Mode is the breathing apparatus used on the dive.
type Mode int

const (
	OC  Mode = iota // open circuit
	CCR             // closed circuit rebreather
)

// String returns "oc" or "ccr".
func (m Mode) String() string {
	if m == CCR {
		return "ccr"
	}
	return "oc"
}

// Cylinder is a tank carried on the dive. Pressures are in mbar, size in ml
// of water capacity.
type Cylinder struct {
	Description     string `json:"description"`
	SizeML          int    `json:"size_ml"`
	WorkingPressure int    `json:"working_pressure"`
	StartPressure   int    `json:"start_pressure"`
	EndPressure     int    `json:"end_pressure"`
	Gas             GasMix `json:"gas"`
	// Planned marks cylinders synthesised by the planner for a gas that no
	// existing cylinder carried.
	Planned bool `json:"planned,omitempty"`
}

// DefaultCylinder returns an AL80 filled with gas.
func DefaultCylinder(gas GasMix) Cylinder {
	return Cylinder{
		Description:     "AL80",
		SizeML:          11100,
		WorkingPressure: 207000,
		StartPressure:   207000,
		EndPressure:     207000,
		Gas:             gas,
	}
}

// Sample is one vertex of the recorded or planned profile.
type Sample struct {
	Time     int `json:"time"`     // seconds since dive start
	Depth    int `json:"depth"`    // mm
	Cylinder int `json:"cylinder"` // index into Dive.Cylinders
	Setpoint int `json:"setpoint"` // mbar, 0 on open circuit
	// Manual marks samples that correspond to user-entered waypoints.
	Manual bool `json:"manual,omitempty"`
}

// Dive is a complete dive record.
type Dive struct {
	Number          int        `json:"number"`
	UID             string     `json:"uid,omitempty"`
	When            time.Time  `json:"when"`
	Duration        int        `json:"duration"`  // seconds
	MaxDepth        int        `json:"max_depth"` // mm
	SurfacePressure int        `json:"surface_pressure"`
	Salinity        int        `json:"salinity"`
	Mode            Mode       `json:"mode"`
	Notes           string     `json:"notes,omitempty"`
	Cylinders       []Cylinder `json:"cylinders"`
	Samples         []Sample   `json:"samples"`
}

// Clone returns a deep copy of d. Mutating the copy never affects d.
func (d *Dive) Clone() *Dive {
	if d == nil {
		return nil
	}
	c := *d
	c.Cylinders = slices.Clone(d.Cylinders)
	c.Samples = slices.Clone(d.Samples)
	return &c
}

// Fixup recomputes Duration and MaxDepth from the samples.
func (d *Dive) Fixup() {
	d.Duration = 0
	d.MaxDepth = 0
	for _, s := range d.Samples {
		d.Duration = max(d.Duration, s.Time)
		d.MaxDepth = max(d.MaxDepth, s.Depth)
	}
}

// FindGas returns the index of the first cylinder carrying gas, or -1.
func (d *Dive) FindGas(gas GasMix) int {
	return FindGas(d.Cylinders, gas)
}

// FindGas returns the index of the first cylinder in cyls carrying gas, or -1.
func FindGas(cyls []Cylinder, gas GasMix) int {
	for i, c := range cyls {
		if c.Gas == gas {
			return i
		}
	}
	return -1
}

// GasAt returns the gas of cylinder idx, falling back to air for an index that
// does not resolve.
func (d *Dive) GasAt(idx int) GasMix {
	if idx < 0 || idx >= len(d.Cylinders) {
		return Air
	}
	return d.Cylinders[idx].Gas
}
