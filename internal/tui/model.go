package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/planner"
)

// maxMessages bounds the status lines kept under the table.
const maxMessages = 4

// defaultStopSeconds is the duration of a stop added with the add key.
const defaultStopSeconds = 5 * 60

// editable lists the table columns the cursor can land on.
var editable = []planner.Column{
	planner.ColDepth,
	planner.ColDuration,
	planner.ColRuntime,
	planner.ColGas,
	planner.ColSetpoint,
}

// Model is the Bubble Tea model of the interactive planner. It is bound to a
// planner.Controller through the tabular contract.
type Model struct {
	Ctrl    *planner.Controller
	Keys    KeyMap
	Width   int
	Height  int
	Cursor  int // row
	Column  int // index into editable
	Editing bool
	Input   textinput.Model

	Messages  []string
	Committed *dive.Dive
	Done      bool

	// PlanPath is the plan file being watched, if any.
	PlanPath string

	bridge  *bridge
	reloads <-chan planfile.Reload
}

// Option configures a Model.
type Option func(*Model)

// WithReloads feeds plan file reloads into the model.
func WithReloads(path string, reloads <-chan planfile.Reload) Option {
	return func(m *Model) {
		m.PlanPath = path
		m.reloads = reloads
	}
}

// NewModel binds a model to ctrl, which must hold an active plan.
func NewModel(ctrl *planner.Controller, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "▸ "
	ti.CharLimit = 32

	m := Model{
		Ctrl:   ctrl,
		Keys:   DefaultKeyMap(),
		Input:  ti,
		bridge: &bridge{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	ctrl.SetNotifier(m.bridge)
	m.afterChange()
	return m
}

// MsgReload carries a plan file change into the update loop.
type MsgReload planfile.Reload

// waitReload blocks on the next plan file reload.
func waitReload(ch <-chan planfile.Reload) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return MsgReload(r)
	}
}

// Init starts listening for plan file reloads.
func (m Model) Init() tea.Cmd {
	return waitReload(m.reloads)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Input.Width = max(msg.Width-8, 10)
		return m, nil

	case MsgReload:
		m.handleReload(planfile.Reload(msg))
		return m, waitReload(m.reloads)

	case tea.KeyMsg:
		if m.Editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Done = true
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		m.Cursor = clamp(m.Cursor-1, 0, m.Ctrl.RowCount()-1)
	case key.Matches(msg, m.Keys.Down):
		m.Cursor = clamp(m.Cursor+1, 0, m.Ctrl.RowCount()-1)
	case key.Matches(msg, m.Keys.Left):
		m.Column = clamp(m.Column-1, 0, len(editable)-1)
	case key.Matches(msg, m.Keys.Right):
		m.Column = clamp(m.Column+1, 0, len(editable)-1)
	case key.Matches(msg, m.Keys.Edit):
		return m.startEdit()
	case key.Matches(msg, m.Keys.AddStop):
		m.addStop()
	case key.Matches(msg, m.Keys.Remove):
		m.removeRow()
	case key.Matches(msg, m.Keys.Recalc):
		m.Ctrl.SetRecalc(true)
		m.afterChange()
	case key.Matches(msg, m.Keys.AddCylinder):
		if err := m.Ctrl.AddCylinder(); err != nil {
			m.addMessage("error: %v", err)
		}
		m.afterChange()
	case key.Matches(msg, m.Keys.Columns):
		s := m.Ctrl.Settings()
		m.Ctrl.SetDisplayRuntime(!s.DisplayRuntime)
		m.Ctrl.SetDisplayDuration(s.DisplayRuntime)
		m.afterChange()
	case key.Matches(msg, m.Keys.Commit):
		return m.commit()
	case key.Matches(msg, m.Keys.Cancel):
		m.Ctrl.CancelPlan()
		m.afterChange()
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

// column returns the table column under the cursor.
func (m Model) column() planner.Column {
	return editable[clamp(m.Column, 0, len(editable)-1)]
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	if m.Ctrl.RowCount() == 0 {
		return m, nil
	}
	col := m.column()
	if m.Ctrl.Flags(m.Cursor, col)&planner.ItemIsEditable == 0 {
		m.addMessage("%s is not editable here", m.Ctrl.HeaderData(col))
		return m, nil
	}
	m.Editing = true
	m.Keys = EditKeyMap()
	m.Input.SetValue(fmt.Sprint(m.Ctrl.Data(m.Cursor, col, planner.EditRole)))
	m.Input.CursorEnd()
	return m, m.Input.Focus()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Done = true
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Back):
		m.stopEdit()
		return m, nil
	case key.Matches(msg, m.Keys.Confirm):
		value := m.Input.Value()
		m.stopEdit()
		if _, err := m.Ctrl.SetData(m.Cursor, m.column(), value); err != nil {
			m.addMessage("error: %v", err)
		}
		m.afterChange()
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *Model) stopEdit() {
	m.Editing = false
	m.Keys = DefaultKeyMap()
	m.Input.Blur()
	m.Input.Reset()
}

// addStop appends a stop after the last entered waypoint: the default
// profile on an empty plan, otherwise five more minutes at the same depth.
func (m *Model) addStop() {
	last := m.Ctrl.LastEnteredPoint()
	if last < 0 {
		if err := m.Ctrl.SeedSimpleProfile(); err != nil {
			m.addMessage("error: %v", err)
		}
		m.afterChange()
		return
	}
	p, _ := m.Ctrl.At(last)
	row, err := m.Ctrl.AddStop(p.Depth, defaultStopSeconds, nil, p.Setpoint, true)
	if err != nil {
		m.addMessage("error: %v", err)
		return
	}
	m.afterChange()
	m.Cursor = clamp(row, 0, m.Ctrl.RowCount()-1)
}

func (m *Model) removeRow() {
	if m.Ctrl.Remove(m.Cursor, planner.ColRemove) {
		m.afterChange()
		return
	}
	if m.Ctrl.RowCount() == 1 {
		m.addMessage("the last waypoint cannot be removed")
	}
}

func (m Model) commit() (tea.Model, tea.Cmd) {
	d, err := m.Ctrl.CreateSimpleDive(context.Background())
	if err != nil {
		if errors.Is(err, planner.ErrNoStore) {
			m.addMessage("no logbook configured; start with --save to commit")
		} else {
			m.addMessage("error: %v", err)
		}
		m.afterChange()
		return m, nil
	}
	m.Committed = d
	m.afterChange()
	m.Done = true
	return m, tea.Quit
}

// handleReload replaces the plan with the reloaded document. A file that
// does not parse or that the planner would reject keeps the current plan.
func (m *Model) handleReload(r planfile.Reload) {
	if r.Err == nil {
		r.Err = r.Doc.Check(m.Ctrl.Settings())
	}
	if r.Err != nil {
		m.addMessage("error: reload %s: %v", r.Path, r.Err)
		return
	}
	m.Ctrl.CancelPlan()
	m.bridge.events = nil
	if err := r.Doc.Apply(m.Ctrl); err != nil {
		m.afterChange()
		m.addMessage("error: reload %s: %v", r.Path, err)
		return
	}
	m.afterChange()
	m.addMessage("reloaded %s", r.Path)
}

// afterChange brings the profile up to date and folds the controller's
// notifications into the view state.
func (m *Model) afterChange() {
	if m.Ctrl.CurrentMode() != planner.ModeNothing {
		if err := m.Ctrl.Recalculate(); err != nil {
			m.addMessage("error: %v", err)
		}
	}
	cursor, msgs := m.bridge.drain(m.Cursor, m.Ctrl.RowCount())
	m.Cursor = cursor
	for _, s := range msgs {
		m.addMessage("%s", s)
	}
}

func (m *Model) addMessage(format string, args ...any) {
	m.Messages = append(m.Messages, fmt.Sprintf(format, args...))
	if len(m.Messages) > maxMessages {
		m.Messages = m.Messages[len(m.Messages)-maxMessages:]
	}
}
