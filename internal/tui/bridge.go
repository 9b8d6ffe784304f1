package tui

import "github.com/dsh2/subsurface/internal/planner"

// bridge receives the controller's change notifications on behalf of the
// model. Bubble Tea copies the model on every update, so the bridge lives
// behind a pointer and the model drains it after each controller call.
type bridge struct {
	planner.NopNotifier

	removed []int // first row of each removed range
	reset   bool
	events  []string
}

var _ planner.Notifier = (*bridge)(nil)

func (b *bridge) BeginRemoveRows(first, last int) {
	b.removed = append(b.removed, first)
}

func (b *bridge) EndResetModel() {
	b.reset = true
}

func (b *bridge) CylinderModelEdited() {
	b.events = append(b.events, "cylinders changed")
}

func (b *bridge) PlanCreated() {
	b.events = append(b.events, "dive saved")
}

func (b *bridge) PlanCanceled() {
	b.events = append(b.events, "plan canceled")
}

// drain applies the pending notifications to the cursor and returns the
// status lines they produced.
func (b *bridge) drain(cursor, rows int) (int, []string) {
	if b.reset {
		cursor = 0
	}
	for _, first := range b.removed {
		if first < cursor {
			cursor--
		}
	}
	cursor = clamp(cursor, 0, rows-1)

	msgs := b.events
	b.removed, b.reset, b.events = nil, false, nil
	return cursor, msgs
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
