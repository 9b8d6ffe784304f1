package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dsh2/subsurface/internal/dive"
)

// fakeEngine mirrors the waypoints into samples and, for deco plans ending
// below the surface, appends a 3 m stop and a surface point.
type fakeEngine struct {
	calls int
	err   error
	last  *DivePlan
}

func (e *fakeEngine) Recalculate(plan *DivePlan, cylinders []dive.Cylinder) (*Result, error) {
	e.calls++
	cp := *plan
	e.last = &cp
	if e.err != nil {
		return nil, e.err
	}
	res := &Result{Cylinders: cylinders}
	res.Samples = append(res.Samples, dive.Sample{})
	for _, p := range plan.Points {
		res.Samples = append(res.Samples, dive.Sample{
			Time:     p.Runtime,
			Depth:    p.Depth,
			Cylinder: max(dive.FindGas(cylinders, p.Gas), 0),
			Manual:   p.Entered,
		})
	}
	if n := len(plan.Points); plan.Deco && n > 0 && plan.Points[n-1].Depth > 0 {
		gas := plan.Points[n-1].Gas
		res.Stops = []DataPoint{
			{Depth: 3000, Duration: 180, Gas: gas},
			{Depth: 0, Duration: 60, Gas: gas},
		}
		rt := plan.Points[n-1].Runtime
		res.Samples = append(res.Samples,
			dive.Sample{Time: rt + 180, Depth: 3000},
			dive.Sample{Time: rt + 240},
		)
	}
	res.Notes = fmt.Sprintf("%d points", len(plan.Points))
	return res, nil
}

type fakeStore struct {
	saved []*dive.Dive
	err   error
}

func (s *fakeStore) SaveDive(_ context.Context, d *dive.Dive) error {
	if s.err != nil {
		return s.err
	}
	if d.Number == 0 {
		d.Number = len(s.saved) + 1
	}
	d.UID = fmt.Sprintf("uid-%d", d.Number)
	s.saved = append(s.saved, d.Clone())
	return nil
}

// recorder logs notifications and fails the test on unbalanced brackets.
type recorder struct {
	t      *testing.T
	events []string
	open   string
}

func newRecorder(t *testing.T) *recorder {
	return &recorder{t: t}
}

func (r *recorder) begin(kind string, first, last int) {
	r.t.Helper()
	if r.open != "" {
		r.t.Errorf("%s(%d,%d) while %s is open", kind, first, last, r.open)
	}
	r.open = kind
	r.events = append(r.events, fmt.Sprintf("%s(%d,%d)", kind, first, last))
}

func (r *recorder) end(kind string) {
	r.t.Helper()
	if r.open != kind {
		r.t.Errorf("end %s while %q is open", kind, r.open)
	}
	r.open = ""
	r.events = append(r.events, "end"+kind)
}

func (r *recorder) BeginInsertRows(first, last int) { r.begin("insert", first, last) }
func (r *recorder) EndInsertRows()                  { r.end("insert") }
func (r *recorder) BeginRemoveRows(first, last int) { r.begin("remove", first, last) }
func (r *recorder) EndRemoveRows()                  { r.end("remove") }
func (r *recorder) BeginResetModel()                { r.begin("reset", 0, 0) }
func (r *recorder) EndResetModel()                  { r.end("reset") }
func (r *recorder) DataChanged(first, last int) {
	if r.open != "" {
		r.t.Errorf("dataChanged(%d,%d) inside %s", first, last, r.open)
	}
	r.events = append(r.events, fmt.Sprintf("data(%d,%d)", first, last))
}
func (r *recorder) TanksUpdated()        { r.events = append(r.events, "tanks") }
func (r *recorder) CylinderModelEdited() { r.events = append(r.events, "cylinders") }
func (r *recorder) PlanCreated()         { r.events = append(r.events, "created") }
func (r *recorder) PlanCanceled()        { r.events = append(r.events, "canceled") }

func (r *recorder) reset() { r.events = nil }

func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// newPlanning returns a controller in PLAN mode with a fake engine and store.
func newPlanning(t *testing.T) (*Controller, *fakeEngine, *fakeStore) {
	t.Helper()
	eng := &fakeEngine{}
	st := &fakeStore{}
	c := New(eng, WithStore(st))
	if err := c.CreatePlan(nil); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return c, eng, st
}

// newPlan returns a controller in PLAN mode on an open or closed circuit
// dive.
func newPlan(t *testing.T, ccr bool) *Controller {
	t.Helper()
	base := &dive.Dive{Mode: dive.OC}
	if ccr {
		base.Mode = dive.CCR
	}
	c := New(&fakeEngine{})
	if err := c.CreatePlan(base); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return c
}

func mustAdd(t *testing.T, c *Controller, depth, duration int, gas *dive.GasMix) int {
	t.Helper()
	row, err := c.AddStop(depth, duration, gas, 0, true)
	if err != nil {
		t.Fatalf("AddStop(%d, %d): %v", depth, duration, err)
	}
	return row
}

func assertMonotone(t *testing.T, c *Controller) {
	t.Helper()
	last := 0
	for i, p := range c.Points() {
		if p.Runtime < last {
			t.Fatalf("row %d runtime %d < previous %d", i, p.Runtime, last)
		}
		last = p.Runtime
	}
}

func loggedDive() *dive.Dive {
	ean32 := dive.GasMix{O2: 320}
	return &dive.Dive{
		Number:          7,
		SurfacePressure: 1005,
		Salinity:        dive.FreshWater,
		Cylinders: []dive.Cylinder{
			dive.DefaultCylinder(dive.Air),
			dive.DefaultCylinder(ean32),
		},
		Samples: []dive.Sample{
			{Time: 0, Depth: 0},
			{Time: 120, Depth: 18000, Manual: true},
			{Time: 600, Depth: 18000},
			{Time: 1500, Depth: 18000, Manual: true},
			{Time: 2100, Depth: 5000, Cylinder: 1, Manual: true},
			{Time: 2400, Depth: 0},
		},
	}
}

var errBoom = errors.New("boom")
