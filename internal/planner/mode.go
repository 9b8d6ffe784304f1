package planner

// Mode is the planner session state.
type Mode int

const (
	// ModeNothing means no planning session is active.
	ModeNothing Mode = iota
	// ModePlan means a fresh dive is being planned.
	ModePlan
	// ModeAdd means an existing dive is being extended.
	ModeAdd
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModePlan:
		return "plan"
	case ModeAdd:
		return "add"
	default:
		return "nothing"
	}
}

// canTransition reports whether the state machine allows from -> to.
// Staying in the same mode is not a transition and is handled by callers.
func canTransition(from, to Mode) bool {
	switch from {
	case ModeNothing:
		return to == ModePlan || to == ModeAdd
	case ModePlan, ModeAdd:
		return to == ModeNothing
	}
	return false
}
