package planner

import (
	"slices"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/telemetry"
)

// TankInUse reports whether any waypoint breathes gas.
func (c *Controller) TankInUse(gas dive.GasMix) bool {
	return slices.ContainsFunc(c.points, func(p DataPoint) bool { return p.Gas == gas })
}

// CollectGases counts, per cylinder of d, the waypoints breathing its gas.
// Gases used by waypoints but carried by no cylinder of d follow with
// Cylinder -1.
func (c *Controller) CollectGases(d *dive.Dive) []GasUse {
	var cyls []dive.Cylinder
	if d != nil {
		cyls = d.Cylinders
	}
	return collectGases(cyls, c.points)
}

func collectGases(cyls []dive.Cylinder, points []DataPoint) []GasUse {
	uses := make([]GasUse, len(cyls))
	for i, cyl := range cyls {
		uses[i] = GasUse{Cylinder: i, Gas: cyl.Gas}
	}
	for _, p := range points {
		if idx := dive.FindGas(cyls, p.Gas); idx >= 0 {
			uses[idx].Count++
			continue
		}
		missing := slices.IndexFunc(uses[len(cyls):], func(u GasUse) bool { return u.Gas == p.Gas })
		if missing >= 0 {
			uses[len(cyls)+missing].Count++
			continue
		}
		uses = append(uses, GasUse{Cylinder: -1, Gas: p.Gas, Count: 1})
	}
	return uses
}

// Cylinders returns a copy of the working cylinder set.
func (c *Controller) Cylinders() []dive.Cylinder {
	return slices.Clone(c.cylinders)
}

// GetGasList returns the display names of the working cylinders' gases.
func (c *Controller) GetGasList() []string {
	names := make([]string, len(c.cylinders))
	for i, cyl := range c.cylinders {
		names[i] = cyl.Gas.Name()
	}
	return names
}

// addGas makes sure a working cylinder carries mix and returns its index. A
// missing gas gets a synthesised cylinder; the only failure is running out of
// cylinder slots, which leaves the set unchanged.
func (c *Controller) addGas(mix dive.GasMix) (int, error) {
	if err := mix.Validate(); err != nil {
		return -1, err
	}
	if idx := dive.FindGas(c.cylinders, mix); idx >= 0 {
		return idx, nil
	}
	if len(c.cylinders) >= dive.MaxCylinders {
		c.emit(telemetry.KindEditRejected, map[string]string{"reason": ErrTooManyCylinders.Error(), "gas": mix.Name()})
		return -1, ErrTooManyCylinders
	}

	cyl := dive.DefaultCylinder(mix)
	cyl.Description = mix.Name()
	cyl.Planned = true
	c.cylinders = append(c.cylinders, cyl)
	c.emit(telemetry.KindGasAdded, map[string]any{"gas": mix.Name(), "cylinder": len(c.cylinders) - 1})
	c.notifier.CylinderModelEdited()
	c.TanksUpdated()
	return len(c.cylinders) - 1, nil
}

// AddCylinder appends a default air cylinder to the working set.
func (c *Controller) AddCylinder() error {
	if len(c.cylinders) >= dive.MaxCylinders {
		return ErrTooManyCylinders
	}
	c.cylinders = append(c.cylinders, dive.DefaultCylinder(dive.Air))
	c.SetRecalc(true)
	c.notifier.CylinderModelEdited()
	c.TanksUpdated()
	return nil
}

// CopyCylinders replaces the working cylinder set with a copy of d's.
func (c *Controller) CopyCylinders(d *dive.Dive) {
	c.cylinders = nil
	if d != nil {
		c.cylinders = slices.Clone(d.Cylinders)
	}
	c.TanksUpdated()
}

// SetupCylinders fills an empty working set from the source dive, or with a
// single air cylinder, then makes sure every waypoint's gas resolves.
// Existing cylinders keep their indices.
func (c *Controller) SetupCylinders() {
	if len(c.cylinders) == 0 {
		if c.source != nil && len(c.source.Cylinders) > 0 {
			c.cylinders = slices.Clone(c.source.Cylinders)
		} else {
			c.cylinders = []dive.Cylinder{dive.DefaultCylinder(dive.Air)}
		}
	}
	for _, p := range c.points {
		if _, err := c.addGas(p.Gas); err != nil {
			break
		}
	}
	c.TanksUpdated()
}

// RememberTanks snapshots gas usage so PruneUnusedTanks can tell which
// cylinders an edit left unused.
func (c *Controller) RememberTanks() {
	c.oldGases = collectGases(c.cylinders, c.points)
}

// PruneUnusedTanks removes the cylinders that were in use at the last
// RememberTanks and that no waypoint references any more, then takes a new
// snapshot. The last remaining cylinder is never removed. It returns the
// gases of the removed cylinders.
func (c *Controller) PruneUnusedTanks() []dive.GasMix {
	removed := c.dropUnusedTanks(c.oldGases, false)
	c.RememberTanks()
	return removed
}

// dropUnusedTanks removes the cylinders in use according to before that no
// waypoint references now. With plannedOnly, only cylinders the planner
// synthesised are candidates; the ones the diver brought stay in the set.
func (c *Controller) dropUnusedTanks(before []GasUse, plannedOnly bool) []dive.GasMix {
	var removed []dive.GasMix
	for _, old := range before {
		if old.Count == 0 || old.Cylinder < 0 || c.TankInUse(old.Gas) {
			continue
		}
		idx := dive.FindGas(c.cylinders, old.Gas)
		if idx < 0 || len(c.cylinders) == 1 || (plannedOnly && !c.cylinders[idx].Planned) {
			continue
		}
		c.cylinders = slices.Delete(c.cylinders, idx, idx+1)
		removed = append(removed, old.Gas)
		c.emit(telemetry.KindTankPruned, map[string]string{"gas": old.Gas.Name()})
	}
	if len(removed) > 0 {
		c.SetRecalc(true)
		c.notifier.CylinderModelEdited()
		c.TanksUpdated()
	}
	return removed
}
