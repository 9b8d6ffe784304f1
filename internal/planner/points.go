package planner

import (
	"fmt"
	"slices"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/telemetry"
)

// maxSetpoint bounds CCR setpoints (mbar).
const maxSetpoint = 2000

// Size returns the number of waypoints.
func (c *Controller) Size() int {
	return len(c.points)
}

// At returns the waypoint at row.
func (c *Controller) At(row int) (DataPoint, bool) {
	if row < 0 || row >= len(c.points) {
		return DataPoint{}, false
	}
	return c.points[row], true
}

// Points returns a copy of the waypoint sequence.
func (c *Controller) Points() []DataPoint {
	return slices.Clone(c.points)
}

// AddStop inserts a waypoint reached after duration seconds at depth mm and
// returns its row. Entered points go right after the last entered point;
// computed points are appended. A nil gas continues the previous point's gas.
// Beyond MaxPoints the call returns -1 and ErrTooManyPoints.
func (c *Controller) AddStop(depth, duration int, gas *dive.GasMix, setpoint int, entered bool) (int, error) {
	row := len(c.points)
	if entered {
		row = c.LastEnteredPoint() + 1
	}
	p := DataPoint{Depth: depth, Duration: duration, Setpoint: setpoint, Entered: entered}
	return c.insertPoint(row, p, gas, false)
}

// AddStopAt inserts an entered waypoint at an absolute runtime. The point
// after it keeps its runtime; an existing point with the same runtime is
// replaced instead.
func (c *Controller) AddStopAt(depth, runtime int, gas *dive.GasMix, setpoint int) (int, error) {
	if runtime < 0 {
		return -1, fmt.Errorf("%w: runtime %d", ErrInvalidValue, runtime)
	}
	row := len(c.points)
	for i, p := range c.points {
		if p.Runtime == runtime {
			np := p
			np.Depth = depth
			np.Setpoint = setpoint
			np.Entered = true
			if gas != nil {
				np.Gas = *gas
			}
			if err := c.EditStop(i, np); err != nil {
				return -1, err
			}
			return i, nil
		}
		if p.Runtime > runtime {
			row = i
			break
		}
	}
	prev := 0
	if row > 0 {
		prev = c.points[row-1].Runtime
	}
	p := DataPoint{Depth: depth, Duration: runtime - prev, Setpoint: setpoint, Entered: true}
	return c.insertPoint(row, p, gas, true)
}

// insertPoint validates p, resolves its gas and inserts it at row. With
// splitNext the following point is shortened so its runtime is unchanged.
func (c *Controller) insertPoint(row int, p DataPoint, gas *dive.GasMix, splitNext bool) (int, error) {
	if len(c.points) >= MaxPoints {
		c.emit(telemetry.KindEditRejected, map[string]any{"reason": ErrTooManyPoints.Error()})
		return -1, ErrTooManyPoints
	}
	if err := validatePoint(p); err != nil {
		return -1, err
	}

	switch {
	case gas != nil:
		p.Gas = *gas
	case row > 0:
		p.Gas = c.points[row-1].Gas
	case len(c.cylinders) > 0:
		p.Gas = c.cylinders[0].Gas
	default:
		p.Gas = dive.Air
	}
	if p.Setpoint == 0 && c.diveMode == dive.CCR && row > 0 {
		p.Setpoint = c.points[row-1].Setpoint
	}
	if _, err := c.addGas(p.Gas); err != nil {
		return -1, err
	}

	c.notifier.BeginInsertRows(row, row)
	c.points = slices.Insert(c.points, row, p)
	if splitNext && row+1 < len(c.points) {
		c.points[row+1].Duration -= p.Duration
	}
	c.rederive(row)
	c.notifier.EndInsertRows()

	if row+1 < len(c.points) {
		c.notifier.DataChanged(row+1, len(c.points)-1)
	}
	if !c.addingDeco {
		c.SetRecalc(true)
		c.emit(telemetry.KindStopAdded, map[string]int{"row": row, "depth": p.Depth, "duration": p.Duration})
	}
	return row, nil
}

// EditStop replaces the waypoint at row with newData. Runtimes from row on
// are re-derived and recalculation is requested if anything changed. A
// synthesised cylinder the edit left unused is dropped.
func (c *Controller) EditStop(row int, newData DataPoint) error {
	if row < 0 || row >= len(c.points) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if err := validatePoint(newData); err != nil {
		return err
	}
	newData.Runtime = c.points[row].Runtime
	if newData == c.points[row] {
		return nil
	}
	before := collectGases(c.cylinders, c.points)
	if _, err := c.addGas(newData.Gas); err != nil {
		return err
	}

	c.points[row] = newData
	c.rederive(row)
	c.SetRecalc(true)
	c.notifier.DataChanged(row, len(c.points)-1)
	c.emit(telemetry.KindStopEdited, map[string]int{"row": row, "depth": newData.Depth, "duration": newData.Duration})
	c.dropUnusedTanks(before, true)
	return nil
}

// RemoveSelectedPoints removes rows given in any order. Duplicates and
// out-of-range rows are ignored. Synthesised cylinders no remaining point
// uses are dropped.
func (c *Controller) RemoveSelectedPoints(rows []int) {
	var valid []int
	for _, r := range rows {
		if r >= 0 && r < len(c.points) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return
	}
	before := collectGases(c.cylinders, c.points)
	c.removeRows(valid)
	c.SetRecalc(true)
	c.emit(telemetry.KindStopsRemoved, map[string]int{"count": len(valid)})
	c.dropUnusedTanks(before, true)
}

// removeRows deletes rows one at a time from the bottom so every removal is
// bracketed with its own exact range.
func (c *Controller) removeRows(rows []int) {
	rows = slices.Clone(rows)
	slices.Sort(rows)
	rows = slices.Compact(rows)
	slices.Reverse(rows)

	for _, r := range rows {
		c.notifier.BeginRemoveRows(r, r)
		c.points = slices.Delete(c.points, r, r+1)
		c.notifier.EndRemoveRows()
	}

	first := rows[len(rows)-1]
	c.rederive(first)
	if first < len(c.points) {
		c.notifier.DataChanged(first, len(c.points)-1)
	}
}

// LastEnteredPoint returns the row of the last user-entered point, or -1.
func (c *Controller) LastEnteredPoint() int {
	for i := len(c.points) - 1; i >= 0; i-- {
		if c.points[i].Entered {
			return i
		}
	}
	return -1
}

// RemoveDeco strips every computed point, leaving the entered ones in order.
func (c *Controller) RemoveDeco() {
	if c.removeDeco() {
		c.SetRecalc(true)
	}
}

func (c *Controller) removeDeco() bool {
	var rows []int
	for i, p := range c.points {
		if !p.Entered {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return false
	}
	c.removeRows(rows)
	return true
}

// Clear removes every waypoint.
func (c *Controller) Clear() {
	if len(c.points) == 0 {
		return
	}
	c.notifier.BeginRemoveRows(0, len(c.points)-1)
	c.points = nil
	c.notifier.EndRemoveRows()
}

// SeedSimpleProfile adds the default "add dive" waypoints: 15 m reached after
// one minute and held until minute 20, then in ADD mode 5 m from minute 42
// to minute 45.
func (c *Controller) SeedSimpleProfile() error {
	gas := dive.Air
	if len(c.cylinders) > 0 {
		gas = c.cylinders[0].Gas
	}
	stops := [][2]int{{15000, 60}, {15000, 19 * 60}}
	if !c.IsPlanner() {
		stops = append(stops, [2]int{5000, 22 * 60}, [2]int{5000, 3 * 60})
	}
	for _, s := range stops {
		if _, err := c.AddStop(s[0], s[1], &gas, 0, true); err != nil {
			return err
		}
	}
	return nil
}

// rederive recomputes runtimes from row on.
func (c *Controller) rederive(from int) {
	for i := max(from, 0); i < len(c.points); i++ {
		prev := 0
		if i > 0 {
			prev = c.points[i-1].Runtime
		}
		c.points[i].Runtime = prev + c.points[i].Duration
	}
}

func validatePoint(p DataPoint) error {
	switch {
	case p.Depth < 0:
		return fmt.Errorf("%w: depth %d", ErrInvalidValue, p.Depth)
	case p.Duration < 0:
		return fmt.Errorf("%w: duration %d", ErrInvalidValue, p.Duration)
	case p.Setpoint < 0 || p.Setpoint > maxSetpoint:
		return fmt.Errorf("%w: setpoint %d", ErrInvalidValue, p.Setpoint)
	}
	return nil
}
