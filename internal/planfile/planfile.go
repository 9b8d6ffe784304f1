// Package planfile reads and writes dive plans as TOML documents so a plan
// can be kept in version control, edited by hand and replayed into a
// planner.Controller.
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planner"
)

// ErrInvalidDocument is returned when a plan file parses but describes
// something the planner cannot use.
var ErrInvalidDocument = errors.New("invalid plan document")

// Document is the on-disk form of a plan. Units are the ones divers write:
// meters, minutes, liters and bar.
type Document struct {
	Title     string     `toml:"title,omitempty"`
	Mode      string     `toml:"mode,omitempty"`     // "oc" or "ccr"
	Salinity  int        `toml:"salinity,omitempty"` // g/10L
	Settings  Settings   `toml:"settings"`
	Cylinders []Cylinder `toml:"cylinders,omitempty"`
	Points    []Point    `toml:"points,omitempty"`
}

// Settings overrides the planner defaults. Zero and absent values keep the
// default.
type Settings struct {
	GFLow           int       `toml:"gf_low,omitempty"`
	GFHigh          int       `toml:"gf_high,omitempty"`
	SurfacePressure int       `toml:"surface_pressure,omitempty"` // mbar
	BottomSAC       float64   `toml:"bottom_sac,omitempty"`       // l/min
	DecoSAC         float64   `toml:"deco_sac,omitempty"`         // l/min
	AscRate75       float64   `toml:"asc_rate_75,omitempty"`      // m/min
	AscRate50       float64   `toml:"asc_rate_50,omitempty"`      // m/min
	AscRateStops    float64   `toml:"asc_rate_stops,omitempty"`   // m/min
	AscRateLast6m   float64   `toml:"asc_rate_last_6m,omitempty"` // m/min
	DescRate        float64   `toml:"desc_rate,omitempty"`        // m/min
	BottomPO2       float64   `toml:"bottom_po2,omitempty"`       // bar
	DecoPO2         float64   `toml:"deco_po2,omitempty"`         // bar
	StartTime       time.Time `toml:"start_time,omitempty"`

	LastStop6m         *bool `toml:"last_stop_6m,omitempty"`
	DropStoneMode      *bool `toml:"drop_stone,omitempty"`
	Verbatim           *bool `toml:"verbatim,omitempty"`
	DisplayRuntime     *bool `toml:"display_runtime,omitempty"`
	DisplayDuration    *bool `toml:"display_duration,omitempty"`
	DisplayTransitions *bool `toml:"display_transitions,omitempty"`
}

// Cylinder is one tank of the plan.
type Cylinder struct {
	Description     string  `toml:"description,omitempty"`
	Size            float64 `toml:"size,omitempty"`             // liters of water capacity
	WorkingPressure float64 `toml:"working_pressure,omitempty"` // bar
	StartPressure   float64 `toml:"start_pressure,omitempty"`   // bar
	Gas             string  `toml:"gas"`
}

// Point is one entered waypoint. Duration is a Go duration string such as
// "20m" or "1m30s"; an empty gas continues the previous one.
type Point struct {
	Depth    float64 `toml:"depth"` // m
	Duration string  `toml:"duration"`
	Gas      string  `toml:"gas,omitempty"`
	Setpoint float64 `toml:"setpoint,omitempty"` // bar
}

// Load reads and decodes the plan at path. Unknown keys are rejected so that
// typos do not silently fall back to defaults.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parsing plan file: %w: %s", ErrInvalidDocument, strict.String())
		}
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	return &doc, nil
}

// Save writes the document atomically (write temp + rename).
func Save(path string, doc *Document) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp plan file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming plan file: %w", err)
	}
	return nil
}

// DiveMode returns the breathing mode named by the document.
func (d *Document) DiveMode() (dive.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(d.Mode)) {
	case "", "oc":
		return dive.OC, nil
	case "ccr":
		return dive.CCR, nil
	default:
		return dive.OC, fmt.Errorf("%w: mode %q", ErrInvalidDocument, d.Mode)
	}
}

// PlannerSettings returns the planner defaults overridden by the document.
func (d *Document) PlannerSettings() (planner.Settings, error) {
	return d.SettingsOver(planner.DefaultSettings())
}

// SettingsOver returns base with every setting the document names replaced.
func (d *Document) SettingsOver(base planner.Settings) (planner.Settings, error) {
	s := base
	ds := d.Settings

	setInt(&s.GFLow, ds.GFLow)
	setInt(&s.GFHigh, ds.GFHigh)
	setInt(&s.SurfacePressure, ds.SurfacePressure)
	setInt(&s.BottomSAC, milli(ds.BottomSAC))
	setInt(&s.DecoSAC, milli(ds.DecoSAC))
	setInt(&s.AscRate75, milli(ds.AscRate75))
	setInt(&s.AscRate50, milli(ds.AscRate50))
	setInt(&s.AscRateStops, milli(ds.AscRateStops))
	setInt(&s.AscRateLast6m, milli(ds.AscRateLast6m))
	setInt(&s.DescRate, milli(ds.DescRate))
	setInt(&s.BottomPO2, milli(ds.BottomPO2))
	setInt(&s.DecoPO2, milli(ds.DecoPO2))
	if !ds.StartTime.IsZero() {
		s.StartTime = ds.StartTime
	}

	setBool(&s.LastStop6m, ds.LastStop6m)
	setBool(&s.DropStoneMode, ds.DropStoneMode)
	setBool(&s.Verbatim, ds.Verbatim)
	setBool(&s.DisplayRuntime, ds.DisplayRuntime)
	setBool(&s.DisplayDuration, ds.DisplayDuration)
	setBool(&s.DisplayTransitions, ds.DisplayTransitions)

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s, nil
}

// BaseDive returns the dive the plan starts from: environment and cylinders,
// no samples. A document without cylinders yields a dive without cylinders
// and the planner supplies its default.
func (d *Document) BaseDive() (*dive.Dive, error) {
	mode, err := d.DiveMode()
	if err != nil {
		return nil, err
	}
	if len(d.Cylinders) > dive.MaxCylinders {
		return nil, fmt.Errorf("%w: %d cylinders", dive.ErrTooManyCylinders, len(d.Cylinders))
	}
	base := &dive.Dive{
		When:            d.Settings.StartTime,
		SurfacePressure: d.Settings.SurfacePressure,
		Salinity:        d.Salinity,
		Mode:            mode,
	}
	for i, c := range d.Cylinders {
		gas, err := dive.ParseGasMix(c.Gas)
		if err != nil {
			return nil, fmt.Errorf("cylinder %d: %w", i+1, err)
		}
		cyl := dive.DefaultCylinder(gas)
		if c.Description != "" {
			cyl.Description = c.Description
		}
		setInt(&cyl.SizeML, milli(c.Size))
		setInt(&cyl.WorkingPressure, milli(c.WorkingPressure))
		cyl.StartPressure = cyl.WorkingPressure
		setInt(&cyl.StartPressure, milli(c.StartPressure))
		cyl.EndPressure = cyl.StartPressure
		base.Cylinders = append(base.Cylinders, cyl)
	}
	return base, nil
}

// Stop is a decoded waypoint ready for planner.Controller.AddStop.
type Stop struct {
	Depth    int // mm
	Duration int // seconds
	Gas      *dive.GasMix
	Setpoint int // mbar
}

// Stops decodes the document's waypoints.
func (d *Document) Stops() ([]Stop, error) {
	stops := make([]Stop, 0, len(d.Points))
	for i, p := range d.Points {
		dur, err := time.ParseDuration(p.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d duration %q", ErrInvalidDocument, i+1, p.Duration)
		}
		st := Stop{
			Depth:    milli(p.Depth),
			Duration: int(dur.Round(time.Second) / time.Second),
			Setpoint: milli(p.Setpoint),
		}
		if p.Gas != "" {
			gas, err := dive.ParseGasMix(p.Gas)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i+1, err)
			}
			st.Gas = &gas
		}
		stops = append(stops, st)
	}
	return stops, nil
}

// Apply starts a new plan on c from the document: settings first, layered
// over the ones c already holds, then the base dive, then every waypoint as
// an entered stop. Recalculation is left to the caller.
func (d *Document) Apply(c *planner.Controller) error {
	settings, err := d.SettingsOver(c.Settings())
	if err != nil {
		return err
	}
	base, err := d.BaseDive()
	if err != nil {
		return err
	}
	stops, err := d.Stops()
	if err != nil {
		return err
	}
	if err := c.SetSettings(settings); err != nil {
		return err
	}
	if err := c.CreatePlan(base); err != nil {
		return err
	}
	return AddStops(c, stops)
}

// Check applies the document to a scratch controller holding settings and
// reports the first error Apply would return. Nothing outside the scratch
// controller changes.
func (d *Document) Check(settings planner.Settings) error {
	return d.Apply(planner.New(nil, planner.WithSettings(settings)))
}

// AddStops appends stops to the plan held by c.
func AddStops(c *planner.Controller, stops []Stop) error {
	for i, st := range stops {
		if _, err := c.AddStop(st.Depth, st.Duration, st.Gas, st.Setpoint, true); err != nil {
			return fmt.Errorf("point %d: %w", i+1, err)
		}
	}
	return nil
}

// FromController captures the plan held by c: its settings, working
// cylinders and entered waypoints. Computed points are left out because
// they are rebuilt on every recalculation.
func FromController(c *planner.Controller, title string) *Document {
	plan := c.Plan()
	s := plan.Settings
	doc := &Document{
		Title:    title,
		Mode:     plan.Mode.String(),
		Salinity: plan.Salinity,
		Settings: Settings{
			GFLow:              s.GFLow,
			GFHigh:             s.GFHigh,
			SurfacePressure:    s.SurfacePressure,
			BottomSAC:          unit(s.BottomSAC),
			DecoSAC:            unit(s.DecoSAC),
			AscRate75:          unit(s.AscRate75),
			AscRate50:          unit(s.AscRate50),
			AscRateStops:       unit(s.AscRateStops),
			AscRateLast6m:      unit(s.AscRateLast6m),
			DescRate:           unit(s.DescRate),
			BottomPO2:          unit(s.BottomPO2),
			DecoPO2:            unit(s.DecoPO2),
			StartTime:          s.StartTime,
			LastStop6m:         &s.LastStop6m,
			DropStoneMode:      &s.DropStoneMode,
			Verbatim:           &s.Verbatim,
			DisplayRuntime:     &s.DisplayRuntime,
			DisplayDuration:    &s.DisplayDuration,
			DisplayTransitions: &s.DisplayTransitions,
		},
	}
	for _, cyl := range c.Cylinders() {
		doc.Cylinders = append(doc.Cylinders, Cylinder{
			Description:     cyl.Description,
			Size:            unit(cyl.SizeML),
			WorkingPressure: unit(cyl.WorkingPressure),
			StartPressure:   unit(cyl.StartPressure),
			Gas:             cyl.Gas.Name(),
		})
	}
	for _, p := range c.Points() {
		if !p.Entered {
			continue
		}
		doc.Points = append(doc.Points, Point{
			Depth:    unit(p.Depth),
			Duration: (time.Duration(p.Duration) * time.Second).String(),
			Gas:      p.Gas.Name(),
			Setpoint: unit(p.Setpoint),
		})
	}
	return doc
}

// Example returns the plan written by "diveplan init": a 30 m square
// profile on air with EAN50 for the ascent.
func Example() *Document {
	return &Document{
		Title: "30m on air, EAN50 deco",
		Mode:  "oc",
		Settings: Settings{
			GFLow:  30,
			GFHigh: 75,
		},
		Cylinders: []Cylinder{
			{Description: "D12", Size: 24, WorkingPressure: 232, Gas: "air"},
			{Description: "AL40", Size: 5.7, WorkingPressure: 207, Gas: "EAN50"},
		},
		Points: []Point{
			{Depth: 30, Duration: "2m", Gas: "air"},
			{Depth: 30, Duration: "25m"},
		},
	}
}

func milli(v float64) int {
	return int(math.Round(v * 1000))
}

func unit(v int) float64 {
	return float64(v) / 1000
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
