// Package planner is the dive planner's point and plan management core. A
// Controller owns the waypoint sequence, the working cylinder set, the staging
// dive that recalculation results are written to, and the backup of the dive
// being planned from, and exposes the sequence to views as a table.
//
// A Controller is not safe for concurrent use. All calls must come from the
// goroutine that owns it; every call completes its mutation, runtime
// re-derivation and view notification before returning.
package planner

import (
	"fmt"
	"slices"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/telemetry"
)

// Controller orchestrates a planning session.
type Controller struct {
	engine   Engine
	store    Store
	notifier Notifier
	events   *telemetry.Emitter

	settings  Settings
	points    []DataPoint
	cylinders []dive.Cylinder
	oldGases  []GasUse
	diveMode  dive.Mode
	salinity  int
	mode      Mode

	recalc     bool
	addingDeco bool

	// source is the caller's dive; it is only written by RestoreBackupDive
	// and by a commit in ADD mode.
	source  *dive.Dive
	backup  *dive.Dive
	staging *dive.Dive
	notes   string

	// env holds the surface pressure and start time an ADD session
	// replaced; nil outside ADD.
	env *Settings
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore sets the dive store used by CreateSimpleDive.
func WithStore(s Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithNotifier sets the view notifier. The default discards notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithEmitter records session events to e.
func WithEmitter(e *telemetry.Emitter) Option {
	return func(c *Controller) { c.events = e }
}

// WithSettings replaces the default planner settings.
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// New creates a Controller in ModeNothing using engine for recalculation.
func New(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:   engine,
		notifier: NopNotifier{},
		settings: DefaultSettings(),
		salinity: dive.SeaWater,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.emit(telemetry.KindSessionStart, nil)
	return c
}

// SetNotifier replaces the view notifier. Views that are created after the
// controller use it to bind themselves.
func (c *Controller) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	c.notifier = n
}

// CurrentMode returns the session mode.
func (c *Controller) CurrentMode() Mode {
	return c.mode
}

// IsPlanner reports whether a fresh plan (as opposed to an added dive) is
// being edited.
func (c *Controller) IsPlanner() bool {
	return c.mode == ModePlan
}

// SetPlanMode moves the state machine to mode. Setting the current mode is a
// no-op. Leaving an active mode releases the staging dive and the backup
// without restoring; use CancelPlan to restore.
func (c *Controller) SetPlanMode(mode Mode) error {
	if mode == c.mode {
		return nil
	}
	if err := c.transition(mode); err != nil {
		return err
	}
	switch mode {
	case ModeNothing:
		c.DeleteTemporaryPlan()
		c.restoreEnvironment()
		c.backup = nil
		c.source = nil
		c.oldGases = nil
	default:
		c.SetupCylinders()
		c.SetRecalc(true)
	}
	c.EmitDataChanged()
	return nil
}

// transition validates and applies a mode change.
func (c *Controller) transition(to Mode) error {
	if !canTransition(c.mode, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.mode, to)
	}
	from := c.mode
	c.mode = to
	c.emit(telemetry.KindModeChange, map[string]string{"from": from.String(), "to": to.String()})
	return nil
}

// SetRecalc sets the dirty flag and returns its previous value.
func (c *Controller) SetRecalc(recalc bool) bool {
	old := c.recalc
	c.recalc = recalc
	return old
}

// RecalcQ reports whether the profile is stale.
func (c *Controller) RecalcQ() bool {
	return c.recalc
}

// Recalculate runs the engine if the plan changed since the last run. Views
// call it once a batch of edits is complete; CreateSimpleDive and Profile
// call it before reading the staging dive.
func (c *Controller) Recalculate() error {
	if !c.recalc {
		return nil
	}
	return c.CreateTemporaryPlan()
}

// Plan returns a snapshot of the plan as the engine sees it.
func (c *Controller) Plan() DivePlan {
	return DivePlan{
		When:     c.settings.StartTime,
		Salinity: c.salinity,
		Mode:     c.diveMode,
		Deco:     c.mode != ModeAdd,
		Settings: c.settings,
		Points:   slices.Clone(c.points),
	}
}

// Settings returns the current planner settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Notes returns the textual plan of the last recalculation.
func (c *Controller) Notes() string {
	return c.notes
}

// Profile returns a copy of the staging dive after bringing it up to date, or
// nil if no staging dive exists.
func (c *Controller) Profile() (*dive.Dive, error) {
	if err := c.Recalculate(); err != nil {
		return nil, err
	}
	return c.staging.Clone(), nil
}

// TanksUpdated tells views that cylinder identities changed shape.
func (c *Controller) TanksUpdated() {
	c.notifier.TanksUpdated()
	c.EmitDataChanged()
}

// EmitDataChanged pushes recalculated values to views without touching
// waypoint identity or order.
func (c *Controller) EmitDataChanged() {
	if len(c.points) == 0 {
		return
	}
	c.notifier.DataChanged(0, len(c.points)-1)
}

func (c *Controller) emit(kind string, data any) {
	if c.events == nil {
		return
	}
	_ = c.events.Emit(telemetry.Event{Kind: kind, Mode: c.mode.String(), Data: data})
}
