package planner

import (
	"context"
	"fmt"
	"slices"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/telemetry"
)

// CreatePlan enters PLAN mode. base, which may be nil, is the dive currently
// shown to the user: it is snapshotted for CancelPlan and lends its cylinders
// and environment to the fresh staging dive. base itself is never modified
// while planning.
func (c *Controller) CreatePlan(base *dive.Dive) error {
	if err := c.transition(ModePlan); err != nil {
		return err
	}
	c.source = base
	c.backup = base.Clone()
	c.Clear()
	c.diveMode = dive.OC
	c.salinity = dive.SeaWater
	c.cylinders = nil
	if base != nil {
		c.diveMode = base.Mode
		if base.Salinity > 0 {
			c.salinity = base.Salinity
		}
		c.CopyCylinders(base)
	}
	c.SetupCylinders()
	c.staging = c.newStagingDive()
	c.RememberTanks()
	c.SetRecalc(true)
	return nil
}

// newStagingDive allocates a dive carrying the plan's environment and a copy
// of the working cylinders. Its profile starts with a single surface sample.
func (c *Controller) newStagingDive() *dive.Dive {
	return &dive.Dive{
		When:            c.settings.StartTime,
		SurfacePressure: c.settings.SurfacePressure,
		Salinity:        c.salinity,
		Mode:            c.diveMode,
		Cylinders:       slices.Clone(c.cylinders),
		Samples:         []dive.Sample{{}},
	}
}

// CreateTemporaryPlan runs the engine over the current waypoints and writes
// the result into the staging dive, allocating it if needed. Computed points
// from a previous run are replaced.
func (c *Controller) CreateTemporaryPlan() error {
	if c.engine == nil {
		return ErrNoEngine
	}
	if c.staging == nil {
		c.staging = c.newStagingDive()
	}
	c.removeDeco()

	if c.mode != ModeAdd {
		c.staging.When = c.settings.StartTime
		c.staging.SurfacePressure = c.settings.SurfacePressure
	}

	if len(c.points) == 0 {
		c.staging.Samples = []dive.Sample{{}}
		c.staging.Cylinders = slices.Clone(c.cylinders)
		c.staging.Fixup()
		c.notes = ""
		c.recalc = false
		return nil
	}

	plan := c.Plan()
	res, err := c.engine.Recalculate(&plan, slices.Clone(c.cylinders))
	if err != nil {
		c.emit(telemetry.KindRecalcFailed, map[string]string{"error": err.Error()})
		return fmt.Errorf("planner: recalculate: %w", err)
	}

	c.addingDeco = true
	for _, p := range res.Stops {
		gas := p.Gas
		if _, err := c.AddStop(p.Depth, p.Duration, &gas, p.Setpoint, false); err != nil {
			c.addingDeco = false
			c.removeDeco()
			c.emit(telemetry.KindRecalcFailed, map[string]string{"error": err.Error()})
			return fmt.Errorf("planner: recalculate: add computed stop at %d mm: %w", p.Depth, err)
		}
	}
	c.addingDeco = false

	c.staging.Samples = slices.Clone(res.Samples)
	if res.Cylinders != nil {
		c.staging.Cylinders = slices.Clone(res.Cylinders)
	} else {
		c.staging.Cylinders = slices.Clone(c.cylinders)
	}
	c.staging.Fixup()
	c.staging.Notes = res.Notes
	c.notes = res.Notes
	c.recalc = false

	c.emit(telemetry.KindRecalculated, map[string]int{
		"points":    len(c.points),
		"stops":     len(res.Stops),
		"duration":  c.staging.Duration,
		"max_depth": c.staging.MaxDepth,
	})
	c.EmitDataChanged()
	return nil
}

// DeleteTemporaryPlan drops the staging dive without committing. It is safe
// to call when no staging dive exists.
func (c *Controller) DeleteTemporaryPlan() {
	c.staging = nil
	c.notes = ""
}

// LoadFromDive enters ADD mode for extending d. The waypoints are rebuilt
// from d's samples: the manually entered ones if d marks any, otherwise every
// sample except the start and the closing surface sample. Loading while a
// session is active is rejected with ErrInvalidTransition.
func (c *Controller) LoadFromDive(d *dive.Dive) error {
	if d == nil {
		return ErrNilDive
	}
	if c.mode != ModeNothing {
		return fmt.Errorf("%w: %s -> %s: finish or cancel the current session first", ErrInvalidTransition, c.mode, ModeAdd)
	}
	if err := c.transition(ModeAdd); err != nil {
		return err
	}

	c.source = d
	c.backup = d.Clone()
	c.staging = d.Clone()
	c.diveMode = d.Mode
	c.salinity = dive.SeaWater
	if d.Salinity > 0 {
		c.salinity = d.Salinity
	}
	env := c.settings
	c.env = &env
	if d.SurfacePressure > 0 {
		c.settings.SurfacePressure = d.SurfacePressure
	}
	c.settings.StartTime = d.When
	c.cylinders = slices.Clone(d.Cylinders)

	c.notifier.BeginResetModel()
	c.points = pointsFromDive(d)
	c.notifier.EndResetModel()

	c.SetupCylinders()
	c.RememberTanks()
	c.recalc = false
	return nil
}

// pointsFromDive reconstructs entered waypoints from recorded samples.
func pointsFromDive(d *dive.Dive) []DataPoint {
	samples := d.Samples
	if n := len(samples); n > 0 && samples[n-1].Depth == 0 {
		samples = samples[:n-1]
	}
	manual := slices.ContainsFunc(samples, func(s dive.Sample) bool { return s.Manual && s.Time > 0 })

	var points []DataPoint
	last := 0
	for _, s := range samples {
		if s.Time <= last || (manual && !s.Manual) {
			continue
		}
		if len(points) == MaxPoints {
			break
		}
		points = append(points, DataPoint{
			Depth:    s.Depth,
			Duration: s.Time - last,
			Runtime:  s.Time,
			Gas:      d.GasAt(s.Cylinder),
			Setpoint: s.Setpoint,
			Entered:  true,
		})
		last = s.Time
	}
	return points
}

// RestoreBackupDive discards the staging dive, writes the backup snapshot
// back into the dive planning started from, clears the waypoints and returns
// to ModeNothing.
func (c *Controller) RestoreBackupDive() {
	if c.backup != nil && c.source != nil {
		*c.source = *c.backup.Clone()
	}
	c.endSession()
}

// CancelPlan abandons the session and restores the original dive.
func (c *Controller) CancelPlan() {
	active := c.mode != ModeNothing
	c.RestoreBackupDive()
	if active {
		c.emit(telemetry.KindPlanCanceled, nil)
		c.notifier.PlanCanceled()
	}
}

// CreateSimpleDive commits the session: the profile is brought up to date,
// the staging dive is handed to the store and, in ADD mode, moved into the
// dive that was being extended. On a store failure the session is left
// intact and the error is returned.
func (c *Controller) CreateSimpleDive(ctx context.Context) (*dive.Dive, error) {
	switch {
	case c.mode == ModeNothing:
		return nil, ErrNoActivePlan
	case c.store == nil:
		return nil, ErrNoStore
	case len(c.points) == 0:
		return nil, ErrEmptyPlan
	}
	if err := c.Recalculate(); err != nil {
		return nil, err
	}
	if c.staging == nil {
		if err := c.CreateTemporaryPlan(); err != nil {
			return nil, err
		}
	}

	final := c.staging.Clone()
	final.Fixup()
	if err := c.store.SaveDive(ctx, final); err != nil {
		c.emit(telemetry.KindCommitFailed, map[string]string{"error": err.Error()})
		return nil, fmt.Errorf("planner: commit dive: %w", err)
	}

	if c.mode == ModeAdd && c.source != nil {
		*c.source = *final.Clone()
	}
	c.emit(telemetry.KindPlanCommitted, map[string]any{"number": final.Number, "uid": final.UID, "duration": final.Duration})
	c.endSession()
	c.notifier.PlanCreated()
	return final, nil
}

// endSession releases every per-session resource and returns to ModeNothing.
func (c *Controller) endSession() {
	c.DeleteTemporaryPlan()
	c.restoreEnvironment()
	c.Clear()
	c.backup = nil
	c.source = nil
	c.cylinders = nil
	c.oldGases = nil
	c.recalc = false
	if c.mode != ModeNothing {
		_ = c.transition(ModeNothing)
	}
}

// restoreEnvironment puts back the surface pressure and start time that
// LoadFromDive took from the loaded dive.
func (c *Controller) restoreEnvironment() {
	if c.env == nil {
		return
	}
	c.settings.SurfacePressure = c.env.SurfacePressure
	c.settings.StartTime = c.env.StartTime
	c.env = nil
}
