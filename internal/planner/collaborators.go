package planner

import (
	"context"

	"github.com/dsh2/subsurface/internal/dive"
)

// Result is what a recalculation produces.
type Result struct {
	// Samples is the full profile, starting at the surface.
	Samples []dive.Sample
	// Stops are computed waypoints appended after the entered ones.
	Stops []DataPoint
	// Cylinders is the working set with end pressures filled in.
	Cylinders []dive.Cylinder
	// Notes is the textual plan.
	Notes string
}

// Engine turns a plan into a profile. Implementations must not retain or
// mutate plan or cylinders.
type Engine interface {
	Recalculate(plan *DivePlan, cylinders []dive.Cylinder) (*Result, error)
}

// Store persists committed dives. SaveDive may assign d.Number and d.UID.
type Store interface {
	SaveDive(ctx context.Context, d *dive.Dive) error
}

// Notifier receives the structural and data change notifications a bound
// table view needs. Begin/End pairs always bracket exactly one mutation.
type Notifier interface {
	BeginInsertRows(first, last int)
	EndInsertRows()
	BeginRemoveRows(first, last int)
	EndRemoveRows()
	BeginResetModel()
	EndResetModel()
	DataChanged(firstRow, lastRow int)

	// TanksUpdated signals that cylinder identities changed shape.
	TanksUpdated()
	CylinderModelEdited()
	PlanCreated()
	PlanCanceled()
}

// NopNotifier implements Notifier with no-ops. Embed it to handle only the
// notifications a view cares about.
type NopNotifier struct{}

// BeginInsertRows implements Notifier.
func (NopNotifier) BeginInsertRows(int, int) {}

// EndInsertRows implements Notifier.
func (NopNotifier) EndInsertRows() {}

// BeginRemoveRows implements Notifier.
func (NopNotifier) BeginRemoveRows(int, int) {}

// EndRemoveRows implements Notifier.
func (NopNotifier) EndRemoveRows() {}

// BeginResetModel implements Notifier.
func (NopNotifier) BeginResetModel() {}

// EndResetModel implements Notifier.
func (NopNotifier) EndResetModel() {}

// DataChanged implements Notifier.
func (NopNotifier) DataChanged(int, int) {}

// TanksUpdated implements Notifier.
func (NopNotifier) TanksUpdated() {}

// CylinderModelEdited implements Notifier.
func (NopNotifier) CylinderModelEdited() {}

// PlanCreated implements Notifier.
func (NopNotifier) PlanCreated() {}

// PlanCanceled implements Notifier.
func (NopNotifier) PlanCanceled() {}
