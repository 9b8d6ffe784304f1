package planner

import (
	"errors"
	"testing"

	"github.com/dsh2/subsurface/internal/dive"
)

func TestHeaderData(t *testing.T) {
	t.Parallel()
	c := New(nil)
	want := map[Column]string{
		ColRemove:   "",
		ColDepth:    "Final depth",
		ColDuration: "Duration",
		ColRuntime:  "Runtime",
		ColGas:      "Used gas",
		ColSetpoint: "CC set point",
	}
	if c.ColumnCount() != len(want) {
		t.Fatalf("ColumnCount() = %d, want %d", c.ColumnCount(), len(want))
	}
	for col, title := range want {
		if got := c.HeaderData(col); got != title {
			t.Errorf("HeaderData(%s) = %q, want %q", col, got, title)
		}
	}
}

func TestData(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	ean32 := dive.GasMix{O2: 320}
	mustAdd(t, c, 30000, 90, &ean32)
	mustAdd(t, c, 30000, 1200, nil)

	tests := []struct {
		name string
		row  int
		col  Column
		role Role
		want any
	}{
		{"depth display", 0, ColDepth, DisplayRole, "30m"},
		{"duration rounds up", 0, ColDuration, DisplayRole, "2min"},
		{"runtime display", 1, ColRuntime, DisplayRole, "22min"},
		{"gas display", 1, ColGas, DisplayRole, "EAN32"},
		{"open circuit setpoint", 0, ColSetpoint, DisplayRole, ""},
		{"depth edit", 0, ColDepth, EditRole, 30},
		{"gas edit", 0, ColGas, EditRole, "EAN32"},
		{"setpoint edit", 0, ColSetpoint, EditRole, 0.0},
		{"remove decoration", 0, ColRemove, DecorationRole, RemoveIcon},
		{"entered tone", 0, ColDepth, ForegroundRole, ToneEntered},
		{"row out of range", 2, ColDepth, DisplayRole, nil},
		{"column out of range", 0, Column(42), DisplayRole, nil},
		{"no decoration on depth", 0, ColDepth, DecorationRole, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Data(tt.row, tt.col, tt.role); got != tt.want {
				t.Errorf("Data(%d, %s, %d) = %v (%T), want %v (%T)", tt.row, tt.col, tt.role, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDataComputedTone(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	mustAdd(t, c, 30000, 1200, nil)
	if err := c.Recalculate(); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if got := c.Data(1, ColDepth, ForegroundRole); got != ToneComputed {
		t.Errorf("computed row tone = %v, want ToneComputed", got)
	}
}

func TestSetData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		col   Column
		value any
		check func(DataPoint) bool
		ccr   bool
	}{
		{"depth from string", ColDepth, "25", func(p DataPoint) bool { return p.Depth == 25000 }, false},
		{"depth with unit", ColDepth, "21.5m", func(p DataPoint) bool { return p.Depth == 21500 }, false},
		{"depth from int", ColDepth, 18, func(p DataPoint) bool { return p.Depth == 18000 }, false},
		{"duration minutes", ColDuration, "12", func(p DataPoint) bool { return p.Duration == 720 && p.Runtime == 720 }, false},
		{"gas by name", ColGas, "EAN36", func(p DataPoint) bool { return p.Gas == dive.GasMix{O2: 360} }, false},
		{"gas by value", ColGas, dive.Oxygen, func(p DataPoint) bool { return p.Gas == dive.Oxygen }, false},
		{"setpoint bar", ColSetpoint, 1.3, func(p DataPoint) bool { return p.Setpoint == 1300 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newPlan(t, tt.ccr)
			mustAdd(t, c, 30000, 1200, nil)
			c.SetRecalc(false)

			ok, err := c.SetData(0, tt.col, tt.value)
			if !ok || err != nil {
				t.Fatalf("SetData(%s, %v) = (%v, %v)", tt.col, tt.value, ok, err)
			}
			p, _ := c.At(0)
			if !tt.check(p) {
				t.Errorf("point after SetData = %+v", p)
			}
			if !c.RecalcQ() {
				t.Error("RecalcQ() = false after SetData")
			}
		})
	}
}

func TestSetDataRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		row     int
		col     Column
		value   any
		wantErr error
		ccr     bool
	}{
		{"runtime is read only", 0, ColRuntime, "30", ErrReadOnlyColumn, false},
		{"garbage depth", 0, ColDepth, "deep", ErrInvalidValue, false},
		{"negative depth", 0, ColDepth, -3, ErrInvalidValue, false},
		{"unknown gas", 0, ColGas, "helium soup", dive.ErrInvalidGas, false},
		{"setpoint out of range", 0, ColSetpoint, "3.5", ErrInvalidValue, true},
		{"setpoint on open circuit", 0, ColSetpoint, 1.3, ErrReadOnlyColumn, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newPlan(t, tt.ccr)
			mustAdd(t, c, 30000, 1200, nil)
			before, _ := c.At(0)

			ok, err := c.SetData(tt.row, tt.col, tt.value)
			if ok {
				t.Error("SetData reported success")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			var editErr *EditError
			if !errors.As(err, &editErr) || editErr.Row != tt.row || editErr.Column != tt.col {
				t.Errorf("err = %#v, want *EditError at (%d, %s)", err, tt.row, tt.col)
			}
			if after, _ := c.At(0); after != before {
				t.Errorf("point changed: %+v -> %+v", before, after)
			}
		})
	}

	t.Run("invalid address is a quiet no-op", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newPlanning(t)
		mustAdd(t, c, 30000, 1200, nil)
		for _, addr := range [][2]int{{5, int(ColDepth)}, {-1, int(ColDepth)}, {0, int(ColRemove)}, {0, 99}} {
			ok, err := c.SetData(addr[0], Column(addr[1]), "10")
			if ok || err != nil {
				t.Errorf("SetData(%d, %d) = (%v, %v), want (false, nil)", addr[0], addr[1], ok, err)
			}
		}
	})
}

func TestSetDataPromotesComputedRow(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	mustAdd(t, c, 30000, 1200, nil)
	if err := c.Recalculate(); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if p, _ := c.At(1); p.Entered {
		t.Fatal("row 1 should be computed before the edit")
	}
	if ok, err := c.SetData(1, ColDuration, 5); !ok || err != nil {
		t.Fatalf("SetData = (%v, %v)", ok, err)
	}
	if p, _ := c.At(1); !p.Entered || p.Duration != 300 {
		t.Errorf("edited row = %+v, want entered with 300s", p)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	mustAdd(t, c, 30000, 1200, nil)

	if c.Remove(0, ColRemove) {
		t.Error("removed the only waypoint")
	}
	if c.Data(0, ColRemove, DecorationRole) != nil {
		t.Error("single row shows a remove icon")
	}

	mustAdd(t, c, 10000, 300, nil)
	if c.Remove(0, ColDepth) {
		t.Error("Remove accepted a non-remove column")
	}
	if !c.Remove(0, ColRemove) {
		t.Fatal("Remove(0, ColRemove) = false")
	}
	if p, _ := c.At(0); c.Size() != 1 || p.Depth != 10000 || p.Runtime != 300 {
		t.Errorf("after remove: size %d point %+v", c.Size(), p)
	}
}

func TestFlags(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	mustAdd(t, c, 30000, 1200, nil)

	if f := c.Flags(0, ColRemove); f != ItemIsEnabled {
		t.Errorf("remove flags = %b, want enabled only", f)
	}
	if f := c.Flags(0, ColRuntime); f&ItemIsEditable != 0 {
		t.Error("runtime should not be editable")
	}
	if f := c.Flags(0, ColDepth); f&ItemIsEditable == 0 {
		t.Error("depth should be editable")
	}
	if f := c.Flags(0, ColSetpoint); f&ItemIsEditable != 0 {
		t.Error("setpoint should not be editable on open circuit")
	}
	if f := c.Flags(3, ColDepth); f != 0 {
		t.Errorf("out of range flags = %b, want 0", f)
	}

	ccr := &dive.Dive{Mode: dive.CCR}
	cc := New(&fakeEngine{})
	if err := cc.LoadFromDive(ccr); err != nil {
		t.Fatalf("LoadFromDive: %v", err)
	}
	mustAdd(t, cc, 20000, 600, nil)
	if f := cc.Flags(0, ColSetpoint); f&ItemIsEditable == 0 {
		t.Error("setpoint should be editable on closed circuit")
	}
}

func TestGasToString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		gas  dive.GasMix
		want string
	}{
		{dive.Air, "air"},
		{dive.Oxygen, "oxygen"},
		{dive.GasMix{O2: 500}, "EAN50"},
		{dive.GasMix{O2: 180, He: 450}, "18/45"},
	}
	for _, tt := range tests {
		if got := GasToString(DataPoint{Gas: tt.gas}); got != tt.want {
			t.Errorf("GasToString(%+v) = %q, want %q", tt.gas, got, tt.want)
		}
	}
}
