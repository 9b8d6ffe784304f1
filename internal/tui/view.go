package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planner"
)

// CompactWidth triggers compact mode for the footer and status bar.
const CompactWidth = 60

// View renders the status bar, the waypoint table, the editor or messages,
// the notes and the footer.
func (m Model) View() string {
	if m.Done {
		return ""
	}
	sections := []string{m.statusView(), m.tableView()}
	if m.Editing {
		sections = append(sections, m.editorView())
	}
	if len(m.Messages) > 0 {
		sections = append(sections, m.messagesView())
	}
	if notes := m.notesView(); notes != "" {
		sections = append(sections, notes)
	}
	sections = append(sections, Footer{Width: m.Width, Bindings: FooterBindings(m.Keys)}.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// statusView renders the top bar: session mode, runtime, depth and gradient
// factors.
func (m Model) statusView() string {
	plan := m.Ctrl.Plan()
	runtime, depth := 0, 0
	for _, p := range plan.Points {
		runtime = p.Runtime
		depth = max(depth, p.Depth)
	}
	segments := []string{
		styleStatusLabel.Render("diveplan") + " " + styleStatusValue.Render(m.Ctrl.CurrentMode().String()),
		styleStatusLabel.Render("runtime") + " " + styleStatusValue.Render(fmt.Sprintf("%dmin", dive.Minutes(runtime))),
		styleStatusLabel.Render("max") + " " + styleStatusValue.Render(dive.Meters(depth)),
	}
	if m.Width == 0 || m.Width >= CompactWidth {
		segments = append(segments,
			styleStatusLabel.Render("GF")+" "+styleStatusValue.Render(fmt.Sprintf("%d/%d", plan.Settings.GFLow, plan.Settings.GFHigh)),
			styleStatusLabel.Render("gases")+" "+styleStatusValue.Render(strings.Join(m.Ctrl.GetGasList(), ", ")))
	}
	if m.Ctrl.RecalcQ() {
		segments = append(segments, styleError.Render("stale"))
	}
	bar := styleStatusBar
	if m.Width > 0 {
		bar = bar.Width(m.Width)
	}
	return bar.Render(strings.Join(segments, "  "))
}

// visibleColumns applies the runtime/duration display toggles.
func (m Model) visibleColumns() []planner.Column {
	s := m.Ctrl.Settings()
	cols := []planner.Column{planner.ColRemove, planner.ColDepth}
	if s.DisplayDuration || !s.DisplayRuntime {
		cols = append(cols, planner.ColDuration)
	}
	if s.DisplayRuntime {
		cols = append(cols, planner.ColRuntime)
	}
	cols = append(cols, planner.ColGas)
	if m.Ctrl.Plan().Mode == dive.CCR {
		cols = append(cols, planner.ColSetpoint)
	}
	return cols
}

func (m Model) tableView() string {
	c := m.Ctrl
	cols := m.visibleColumns()
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = max(lipgloss.Width(c.HeaderData(col)), 2)
	}
	rows := c.RowCount()
	cells := make([][]string, rows)
	for r := range rows {
		cells[r] = make([]string, len(cols))
		for i, col := range cols {
			var s string
			if col == planner.ColRemove {
				s, _ = c.Data(r, col, planner.DecorationRole).(string)
			} else {
				s = fmt.Sprint(c.Data(r, col, planner.DisplayRole))
			}
			cells[r][i] = s
			widths[i] = max(widths[i], lipgloss.Width(s))
		}
	}

	var b strings.Builder
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = padRight(c.HeaderData(col), widths[i])
	}
	b.WriteString("  " + styleHeader.Render(strings.Join(header, "  ")) + "\n")
	if rows == 0 {
		b.WriteString("  " + styleRowComputed.Render("(no waypoints, press a to add)") + "\n")
		return b.String()
	}

	cursorCol := m.column()
	for r := range rows {
		tone, _ := c.Data(r, planner.ColDepth, planner.ForegroundRole).(planner.Tone)
		rowStyle := styleRowEntered
		if tone == planner.ToneComputed {
			rowStyle = styleRowComputed
		}
		prefix := "  "
		if r == m.Cursor {
			prefix = styleSelectionIndicator.Render(selectionIndicator) + " "
			rowStyle = styleRowSelected
		}
		parts := make([]string, len(cols))
		for i, col := range cols {
			text := padRight(cells[r][i], widths[i])
			switch {
			case r == m.Cursor && col == cursorCol:
				parts[i] = styleCellSelected.Render(text)
			case col == planner.ColRemove:
				parts[i] = styleRemove.Render(text)
			default:
				parts[i] = rowStyle.Render(text)
			}
		}
		b.WriteString(prefix + strings.Join(parts, "  ") + "\n")
	}
	return b.String()
}

func (m Model) editorView() string {
	title := styleEditorTitle.Render(fmt.Sprintf("%s, row %d", m.Ctrl.HeaderData(m.column()), m.Cursor+1))
	return styleEditor.Render(title + "\n" + m.Input.View())
}

func (m Model) messagesView() string {
	lines := make([]string, len(m.Messages))
	for i, msg := range m.Messages {
		switch {
		case strings.HasPrefix(msg, "error:"):
			lines[i] = styleError.Render(msg)
		case msg == "dive saved":
			lines[i] = styleSuccess.Render(msg)
		default:
			lines[i] = styleMessage.Render(msg)
		}
	}
	return strings.Join(lines, "\n")
}

// notesView renders the engine's textual plan, trimmed to the room left on
// screen.
func (m Model) notesView() string {
	notes := strings.TrimRight(m.Ctrl.Notes(), "\n")
	if notes == "" {
		return ""
	}
	lines := strings.Split(notes, "\n")
	if m.Height > 0 {
		room := m.Height - m.Ctrl.RowCount() - len(m.Messages) - 10
		if room < 3 {
			return ""
		}
		if len(lines) > room {
			lines = append(lines[:room-1], "…")
		}
	}
	return styleNotesBorder.Render(styleNotesTitle.Render("Dive plan") + "\n" + strings.Join(lines, "\n"))
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Footer renders context-sensitive keybinding hints.
type Footer struct {
	Width    int
	Bindings []key.Binding
}

// View renders the footer as a single line of keybinding hints.
// In compact mode (narrow terminals), shows only key hints without descriptions.
func (f Footer) View() string {
	compact := f.Width > 0 && f.Width < CompactWidth

	var parts []string
	for _, b := range f.Bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		var part string
		if compact {
			part = styleFooterKey.Render(help.Key)
		} else {
			part = styleFooterKey.Render(help.Key) + styleFooterSep.Render(":") + styleFooterDesc.Render(help.Desc)
		}
		parts = append(parts, part)
	}
	sep := styleFooterSep.Render("  ")
	if compact {
		sep = styleFooterSep.Render(" ")
	}
	style := styleFooter
	if f.Width > 0 {
		style = style.Width(f.Width)
	}
	return style.Render(strings.Join(parts, sep))
}

// FooterBindings returns the hints for the active key map.
func FooterBindings(km KeyMap) []key.Binding {
	return []key.Binding{
		km.Up, km.Down, km.Left, km.Right, km.Edit, km.Confirm, km.Back, km.AddStop, km.Remove,
		km.Recalc, km.AddCylinder, km.Columns, km.Commit, km.Cancel, km.Quit,
	}
}
