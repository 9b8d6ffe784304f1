package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/telemetry"
)

// ErrReadOnlyColumn indicates a write to a column that is not editable.
var ErrReadOnlyColumn = errors.New("column is not editable")

// Column addresses a field of the waypoint table.
type Column int

// Table columns, in display order.
const (
	ColRemove Column = iota
	ColDepth
	ColDuration
	ColRuntime
	ColGas
	ColSetpoint
	columnCount
)

// String returns the column name used in logs and edit errors.
func (c Column) String() string {
	switch c {
	case ColRemove:
		return "remove"
	case ColDepth:
		return "depth"
	case ColDuration:
		return "duration"
	case ColRuntime:
		return "runtime"
	case ColGas:
		return "gas"
	case ColSetpoint:
		return "setpoint"
	default:
		return fmt.Sprintf("column(%d)", int(c))
	}
}

// Role selects which representation of a cell Data returns.
type Role int

const (
	// DisplayRole yields the formatted string shown in the table.
	DisplayRole Role = iota
	// EditRole yields the value in display units an editor starts from:
	// int meters, int minutes, the gas name, or float64 bar.
	EditRole
	// DecorationRole yields RemoveIcon on the REMOVE column.
	DecorationRole
	// ToolTipRole yields help text for the REMOVE column.
	ToolTipRole
	// ForegroundRole yields the Tone of the row.
	ForegroundRole
)

// RemoveIcon is the decoration of the REMOVE column.
const RemoveIcon = "✕"

// Tone tells views how to emphasise a row.
type Tone int

const (
	ToneEntered Tone = iota
	ToneComputed
)

// ItemFlags describe what a view may do with a cell.
type ItemFlags uint8

const (
	ItemIsEnabled ItemFlags = 1 << iota
	ItemIsSelectable
	ItemIsEditable
)

// RowCount returns the number of waypoints.
func (c *Controller) RowCount() int {
	return len(c.points)
}

// ColumnCount returns the number of table columns.
func (c *Controller) ColumnCount() int {
	return int(columnCount)
}

// HeaderData returns the column title.
func (c *Controller) HeaderData(col Column) string {
	switch col {
	case ColDepth:
		return "Final depth"
	case ColDuration:
		return "Duration"
	case ColRuntime:
		return "Runtime"
	case ColGas:
		return "Used gas"
	case ColSetpoint:
		return "CC set point"
	}
	return ""
}

// Flags returns the capabilities of a cell. The setpoint is only editable on
// closed circuit plans.
func (c *Controller) Flags(row int, col Column) ItemFlags {
	if row < 0 || row >= len(c.points) || col < 0 || col >= columnCount {
		return 0
	}
	switch col {
	case ColRemove:
		return ItemIsEnabled
	case ColRuntime:
		return ItemIsEnabled | ItemIsSelectable
	case ColSetpoint:
		if c.diveMode != dive.CCR {
			return ItemIsEnabled | ItemIsSelectable
		}
	}
	return ItemIsEnabled | ItemIsSelectable | ItemIsEditable
}

// Data returns the cell at (row, col) for role, or nil when the address is
// invalid or the role has nothing for that column.
func (c *Controller) Data(row int, col Column, role Role) any {
	if row < 0 || row >= len(c.points) || col < 0 || col >= columnCount {
		return nil
	}
	p := c.points[row]

	switch role {
	case DisplayRole:
		switch col {
		case ColDepth:
			return dive.Meters(p.Depth)
		case ColDuration:
			return fmt.Sprintf("%dmin", dive.Minutes(p.Duration))
		case ColRuntime:
			return fmt.Sprintf("%dmin", dive.Minutes(p.Runtime))
		case ColGas:
			return GasToString(p)
		case ColSetpoint:
			return formatSetpoint(p.Setpoint)
		}
	case EditRole:
		switch col {
		case ColDepth:
			return (p.Depth + 500) / 1000
		case ColDuration:
			return dive.Minutes(p.Duration)
		case ColRuntime:
			return dive.Minutes(p.Runtime)
		case ColGas:
			return p.Gas.Name()
		case ColSetpoint:
			return float64(p.Setpoint) / 1000
		}
	case DecorationRole:
		if col == ColRemove && len(c.points) > 1 {
			return RemoveIcon
		}
	case ToolTipRole:
		if col == ColRemove {
			return "Clicking here will remove this point."
		}
	case ForegroundRole:
		if p.Entered {
			return ToneEntered
		}
		return ToneComputed
	}
	return nil
}

// SetData applies an edit in display units to the cell at (row, col). Depth
// takes meters, duration minutes, gas a mix or its name, and the setpoint
// bar, and only on closed circuit. An edit of a computed row makes it an
// entered one. It reports whether the address was writable; rejected values
// come back as *EditError and leave the waypoint unchanged.
func (c *Controller) SetData(row int, col Column, value any) (bool, error) {
	if row < 0 || row >= len(c.points) {
		return false, nil
	}
	p := c.points[row]

	var err error
	switch col {
	case ColDepth:
		var m float64
		if m, err = toFloat(value, "m"); err == nil {
			p.Depth = int(math.Round(m * 1000))
		}
	case ColDuration:
		var mins float64
		if mins, err = toFloat(value, "min"); err == nil {
			p.Duration = int(math.Round(mins * 60))
		}
	case ColGas:
		p.Gas, err = toGasMix(value)
	case ColSetpoint:
		if c.diveMode != dive.CCR {
			err = ErrReadOnlyColumn
			break
		}
		var bar float64
		if bar, err = toFloat(value, "bar"); err == nil {
			p.Setpoint = int(math.Round(bar * 1000))
		}
	case ColRuntime:
		err = ErrReadOnlyColumn
	default:
		return false, nil
	}
	p.Entered = true
	if err == nil {
		err = c.EditStop(row, p)
	}
	if err != nil {
		c.emit(telemetry.KindEditRejected, map[string]any{"row": row, "column": col.String(), "reason": err.Error()})
		return false, &EditError{Row: row, Column: col, Err: err}
	}
	return true, nil
}

// Remove deletes row when col is the REMOVE column. The only waypoint of a
// plan cannot be removed this way.
func (c *Controller) Remove(row int, col Column) bool {
	if col != ColRemove || row < 0 || row >= len(c.points) || len(c.points) == 1 {
		return false
	}
	c.RemoveSelectedPoints([]int{row})
	return true
}

// GasToString is the gas label of a waypoint.
func GasToString(p DataPoint) string {
	return p.Gas.Name()
}

func formatSetpoint(mbar int) string {
	if mbar == 0 {
		return ""
	}
	return fmt.Sprintf("%.1fbar", float64(mbar)/1000)
}

// toFloat coerces an editor value, accepting strings with an optional unit
// suffix.
func toFloat(value any, unit string) (float64, error) {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), unit))
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}
	return f, nil
}

func toGasMix(value any) (dive.GasMix, error) {
	switch v := value.(type) {
	case dive.GasMix:
		return v, v.Validate()
	case *dive.GasMix:
		if v == nil {
			return dive.GasMix{}, ErrInvalidValue
		}
		return *v, v.Validate()
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return dive.GasMix{}, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}
	return dive.ParseGasMix(s)
}
