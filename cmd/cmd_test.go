package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dsh2/subsurface/internal/config"
	"github.com/dsh2/subsurface/internal/deco"
	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/logbook"
	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/planner"
	"github.com/dsh2/subsurface/internal/ui"
)

func TestParseStop(t *testing.T) {
	t.Parallel()

	ean50 := dive.GasMix{O2: 500}
	tests := []struct {
		in      string
		want    planfile.Stop
		wantErr bool
	}{
		{in: "30:20", want: planfile.Stop{Depth: 30000, Duration: 1200}},
		{in: "5m:3", want: planfile.Stop{Depth: 5000, Duration: 180}},
		{in: "21:90s:EAN50", want: planfile.Stop{Depth: 21000, Duration: 90, Gas: &ean50}},
		{in: "6:1m30s", want: planfile.Stop{Depth: 6000, Duration: 90}},
		{in: "4.5:0.5", want: planfile.Stop{Depth: 4500, Duration: 30}},
		{in: "30", wantErr: true},
		{in: "30:20:air:extra", wantErr: true},
		{in: "deep:20", wantErr: true},
		{in: "-3:20", wantErr: true},
		{in: "30:0", wantErr: true},
		{in: "30:soon", wantErr: true},
		{in: "30:20:argon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseStop(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errBadStop) {
					t.Fatalf("parseStop(%q) error = %v, want errBadStop", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStop(%q): %v", tt.in, err)
			}
			if got.Depth != tt.want.Depth || got.Duration != tt.want.Duration {
				t.Errorf("parseStop(%q) = %dmm/%ds, want %dmm/%ds", tt.in, got.Depth, got.Duration, tt.want.Depth, tt.want.Duration)
			}
			switch {
			case tt.want.Gas == nil && got.Gas != nil:
				t.Errorf("parseStop(%q) gas = %v, want none", tt.in, *got.Gas)
			case tt.want.Gas != nil && (got.Gas == nil || *got.Gas != *tt.want.Gas):
				t.Errorf("parseStop(%q) gas = %v, want %v", tt.in, got.Gas, *tt.want.Gas)
			}
		})
	}
}

func TestPrintPlan(t *testing.T) {
	t.Parallel()

	var out, log bytes.Buffer
	p := ui.NewWriter(&log, true)
	ctrl := planner.New(deco.New())
	png := filepath.Join(t.TempDir(), "profile.png")

	if err := printPlan(&out, p, ctrl, planfile.Example(), planOutput{PNG: png, NoColor: true}); err != nil {
		t.Fatalf("printPlan: %v", err)
	}
	text := out.String()
	for _, want := range []string{"30m on air, EAN50 deco", "Final depth", "Runtime", "30m", "Dive plan"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if _, err := os.Stat(png); err != nil {
		t.Errorf("profile not written: %v", err)
	}
	if !strings.Contains(log.String(), "profile written to") {
		t.Errorf("printer output = %q", log.String())
	}

	t.Run("replaces the active plan", func(t *testing.T) {
		doc := planfile.Example()
		doc.Points = []planfile.Point{{Depth: 12, Duration: "40m", Gas: "air"}}
		out.Reset()
		if err := printPlan(&out, p, ctrl, doc, planOutput{NoColor: true}); err != nil {
			t.Fatalf("printPlan: %v", err)
		}
		if got := ctrl.LastEnteredPoint(); got != 0 {
			t.Errorf("LastEnteredPoint() = %d, want 0", got)
		}
		if first, _ := ctrl.At(0); first.Depth != 12000 {
			t.Errorf("first depth = %d, want 12000", first.Depth)
		}
	})
}

func TestWritePlanJSON(t *testing.T) {
	t.Parallel()
	ctrl := planner.New(deco.New())
	if err := planfile.Example().Apply(ctrl); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	profile, err := ctrl.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	var buf bytes.Buffer
	if err := writePlanJSON(&buf, ctrl, profile, "square"); err != nil {
		t.Fatalf("writePlanJSON: %v", err)
	}
	var got planJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}

	if got.Title != "square" || got.Mode != "oc" {
		t.Errorf("title/mode = %q/%q", got.Title, got.Mode)
	}
	if got.GFLow != 30 || got.GFHigh != 75 {
		t.Errorf("GF = %d/%d, want 30/75", got.GFLow, got.GFHigh)
	}
	if got.MaxDepth != 30 {
		t.Errorf("MaxDepth = %v, want 30", got.MaxDepth)
	}
	if len(got.Points) < 3 || !got.Points[0].Entered || got.Points[len(got.Points)-1].Entered {
		t.Fatalf("points = %+v, want entered points followed by computed ones", got.Points)
	}
	if last := got.Points[len(got.Points)-1]; last.Depth != 0 || last.Runtime != got.Runtime {
		t.Errorf("last point = %+v, want the surface at runtime %d", last, got.Runtime)
	}
	if got.Runtime <= 27*60 {
		t.Errorf("Runtime = %d, want more than the 27 min bottom time", got.Runtime)
	}
	if len(got.Cylinders) != 2 {
		t.Fatalf("cylinders = %+v, want 2", got.Cylinders)
	}
	if back := got.Cylinders[0]; back.Gas != "air" || back.Used <= 0 || back.End >= back.Start {
		t.Errorf("back gas = %+v, want air with gas used", back)
	}
	if got.Notes == "" {
		t.Error("Notes empty")
	}
}

func TestOpenLogbook(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "dir", "logbook.db")

	store, err := openLogbook(context.Background(), config.LogbookConfig{Driver: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("openLogbook(%q): %v", path, err)
	}
	defer store.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("logbook file not created: %v", err)
	}

	if _, err := openLogbook(context.Background(), config.LogbookConfig{Driver: "mysql", DSN: path}); !errors.Is(err, logbook.ErrUnsupportedDriver) {
		t.Errorf("openLogbook(mysql) = %v, want ErrUnsupportedDriver", err)
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dive.toml")

	if err := runInit(initCmd, []string{path}); err != nil {
		t.Fatalf("runInit(%q): %v", path, err)
	}
	doc, err := planfile.Load(path)
	if err != nil {
		t.Fatalf("Load(%q): %v", path, err)
	}
	if len(doc.Points) != 2 || len(doc.Cylinders) != 2 {
		t.Errorf("example plan = %+v", doc)
	}

	err = runInit(initCmd, []string{path})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second runInit(%q) = %v, want already exists", path, err)
	}
}

func TestAddExtendsLoggedDive(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "logbook.db")
	t.Setenv("DIVEPLAN_LOGBOOK_DSN", dsn)
	ctx := context.Background()

	store, err := logbook.Open(ctx, logbook.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open(%q): %v", dsn, err)
	}
	logged := &dive.Dive{
		When:      time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC),
		Mode:      dive.OC,
		Cylinders: []dive.Cylinder{dive.DefaultCylinder(dive.Air)},
		Samples: []dive.Sample{
			{Time: 0},
			{Time: 60, Depth: 15000, Manual: true},
			{Time: 1200, Depth: 15000, Manual: true},
			{Time: 1300},
		},
	}
	logged.Fixup()
	if err := store.SaveDive(ctx, logged); err != nil {
		t.Fatalf("SaveDive: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"add", "1", "--stop", "5:3", "--no-color"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("diveplan add: %v", err)
	}
	if !strings.Contains(out.String(), "5m") {
		t.Errorf("table missing the new stop:\n%s", out.String())
	}

	store, err = logbook.Open(ctx, logbook.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	dives, err := store.ListDives(ctx)
	if err != nil {
		t.Fatalf("ListDives: %v", err)
	}
	if len(dives) != 1 {
		t.Fatalf("ListDives() = %d dives, want the extended dive only", len(dives))
	}
	d, err := store.GetDive(ctx, 1)
	if err != nil {
		t.Fatalf("GetDive(1): %v", err)
	}
	if d.Duration < 1380 {
		t.Errorf("Duration = %d, want at least 1380 after the 3 min stop", d.Duration)
	}
	found := false
	for _, smp := range d.Samples {
		if smp.Depth == 5000 && smp.Manual {
			found = true
		}
	}
	if !found {
		t.Errorf("samples %+v lack the entered 5 m stop", d.Samples)
	}
	if d.UID != logged.UID {
		t.Errorf("UID = %q, want the original %q", d.UID, logged.UID)
	}
}

func TestTUIRequiresTTY(t *testing.T) {
	if isStderrTTY() {
		t.Skip("stderr is a terminal")
	}
	if err := runTUI(tuiCmd, nil); !errors.Is(err, errNeedsTTY) {
		t.Errorf("runTUI() = %v, want errNeedsTTY", err)
	}
}
