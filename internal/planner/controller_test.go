package planner

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dsh2/subsurface/internal/telemetry"
)

func TestSetPlanMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    Mode
		to      Mode
		wantErr bool
	}{
		{"nothing to plan", ModeNothing, ModePlan, false},
		{"nothing to add", ModeNothing, ModeAdd, false},
		{"plan to nothing", ModePlan, ModeNothing, false},
		{"add to nothing", ModeAdd, ModeNothing, false},
		{"plan to add", ModePlan, ModeAdd, true},
		{"add to plan", ModeAdd, ModePlan, true},
		{"same mode", ModePlan, ModePlan, false},
		{"unknown mode", ModeNothing, Mode(9), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(&fakeEngine{})
			if tt.from != ModeNothing {
				if err := c.SetPlanMode(tt.from); err != nil {
					t.Fatalf("SetPlanMode(%s): %v", tt.from, err)
				}
			}
			err := c.SetPlanMode(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("err = %v, want ErrInvalidTransition", err)
				}
				if c.CurrentMode() != tt.from {
					t.Errorf("mode = %s, want %s retained", c.CurrentMode(), tt.from)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetPlanMode(%s): %v", tt.to, err)
			}
			if c.CurrentMode() != tt.to {
				t.Errorf("mode = %s, want %s", c.CurrentMode(), tt.to)
			}
		})
	}
}

func TestSetPlanModeSetsUpCylinders(t *testing.T) {
	t.Parallel()
	c := New(&fakeEngine{})
	if err := c.SetPlanMode(ModePlan); err != nil {
		t.Fatalf("SetPlanMode: %v", err)
	}
	if !c.IsPlanner() {
		t.Error("IsPlanner() = false in plan mode")
	}
	if got := c.GetGasList(); len(got) != 1 || got[0] != "air" {
		t.Errorf("GetGasList() = %v, want [air]", got)
	}
	if !c.RecalcQ() {
		t.Error("RecalcQ() = false after entering plan mode")
	}
}

func TestSetRecalcReturnsPrevious(t *testing.T) {
	t.Parallel()
	c := New(nil)
	if old := c.SetRecalc(true); old {
		t.Error("first SetRecalc returned true")
	}
	if old := c.SetRecalc(false); !old {
		t.Error("second SetRecalc returned false")
	}
	if c.RecalcQ() {
		t.Error("RecalcQ() = true after clearing")
	}
}

func TestSettingsSetters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		apply func(*Controller) error
		check func(Settings) bool
	}{
		{"gf high", func(c *Controller) error { return c.SetGFHigh(85) }, func(s Settings) bool { return s.GFHigh == 85 }},
		{"gf low", func(c *Controller) error { return c.SetGFLow(40) }, func(s Settings) bool { return s.GFLow == 40 }},
		{"surface pressure", func(c *Controller) error { return c.SetSurfacePressure(900) }, func(s Settings) bool { return s.SurfacePressure == 900 }},
		{"bottom sac", func(c *Controller) error { return c.SetBottomSAC(15000) }, func(s Settings) bool { return s.BottomSAC == 15000 }},
		{"deco sac", func(c *Controller) error { return c.SetDecoSAC(12000) }, func(s Settings) bool { return s.DecoSAC == 12000 }},
		{"asc rate 75", func(c *Controller) error { return c.SetAscRate75(10000) }, func(s Settings) bool { return s.AscRate75 == 10000 }},
		{"asc rate 50", func(c *Controller) error { return c.SetAscRate50(8000) }, func(s Settings) bool { return s.AscRate50 == 8000 }},
		{"asc rate stops", func(c *Controller) error { return c.SetAscRateStops(3000) }, func(s Settings) bool { return s.AscRateStops == 3000 }},
		{"asc rate last 6m", func(c *Controller) error { return c.SetAscRateLast6m(2000) }, func(s Settings) bool { return s.AscRateLast6m == 2000 }},
		{"desc rate", func(c *Controller) error { return c.SetDescRate(20000) }, func(s Settings) bool { return s.DescRate == 20000 }},
		{"bottom po2", func(c *Controller) error { return c.SetBottomPO2(1200) }, func(s Settings) bool { return s.BottomPO2 == 1200 }},
		{"deco po2", func(c *Controller) error { return c.SetDecoPO2(1400) }, func(s Settings) bool { return s.DecoPO2 == 1400 }},
		{"start time", func(c *Controller) error {
			return c.SetStartTime(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
		}, func(s Settings) bool { return s.StartTime.Hour() == 9 }},
		{"last stop 6m", func(c *Controller) error { c.SetLastStop6m(true); return nil }, func(s Settings) bool { return s.LastStop6m }},
		{"drop stone", func(c *Controller) error { c.SetDropStoneMode(true); return nil }, func(s Settings) bool { return s.DropStoneMode }},
		{"verbatim", func(c *Controller) error { c.SetVerbatim(true); return nil }, func(s Settings) bool { return s.Verbatim }},
		{"display runtime", func(c *Controller) error { c.SetDisplayRuntime(false); return nil }, func(s Settings) bool { return !s.DisplayRuntime }},
		{"display duration", func(c *Controller) error { c.SetDisplayDuration(true); return nil }, func(s Settings) bool { return s.DisplayDuration }},
		{"display transitions", func(c *Controller) error { c.SetDisplayTransitions(true); return nil }, func(s Settings) bool { return s.DisplayTransitions }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _, _ := newPlanning(t)
			c.SetRecalc(false)
			if err := tt.apply(c); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if !tt.check(c.Settings()) {
				t.Errorf("settings = %+v", c.Settings())
			}
			if !c.RecalcQ() {
				t.Error("RecalcQ() = false after a setting change")
			}
		})
	}
}

func TestSettingsRejectInvalid(t *testing.T) {
	t.Parallel()
	c, _, _ := newPlanning(t)
	before := c.Settings()
	c.SetRecalc(false)

	for name, err := range map[string]error{
		"gf high zero":    c.SetGFHigh(0),
		"gf low too high": c.SetGFLow(200),
		"surface":         c.SetSurfacePressure(100),
		"sac":             c.SetBottomSAC(-1),
		"rate":            c.SetDescRate(0),
		"po2":             c.SetDecoPO2(0),
	} {
		if !errors.Is(err, ErrInvalidSetting) {
			t.Errorf("%s: err = %v, want ErrInvalidSetting", name, err)
		}
	}
	if c.Settings() != before {
		t.Errorf("settings changed: %+v", c.Settings())
	}
	if c.RecalcQ() {
		t.Error("RecalcQ() = true after rejected settings")
	}

	if err := c.SetGFHigh(before.GFHigh); err != nil || c.RecalcQ() {
		t.Errorf("unchanged setting: err %v RecalcQ %v", err, c.RecalcQ())
	}
}

func TestControllerEmitsTelemetry(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	em := telemetry.NewWriterEmitter(&buf)
	c := New(&fakeEngine{}, WithEmitter(em), WithStore(&fakeStore{}))

	if err := c.CreatePlan(nil); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	mustAdd(t, c, 30000, 1200, nil)
	if _, err := c.AddStop(0, 60, nil, 5000, true); err == nil {
		t.Fatal("AddStop accepted an invalid setpoint")
	}
	c.CancelPlan()

	out := buf.String()
	for _, kind := range []string{
		telemetry.KindSessionStart,
		telemetry.KindModeChange,
		telemetry.KindStopAdded,
		telemetry.KindPlanCanceled,
	} {
		if !strings.Contains(out, `"kind":"`+kind+`"`) {
			t.Errorf("telemetry missing %s:\n%s", kind, out)
		}
	}
	if !strings.Contains(out, em.Session()) {
		t.Error("telemetry lines do not carry the session id")
	}
}
