package planner

import (
	"errors"
	"fmt"

	"github.com/dsh2/subsurface/internal/dive"
)

// Sentinel errors for planner operations. None of them is fatal: the
// controller state is unchanged whenever one is returned.
var (
	// ErrTooManyPoints indicates the waypoint sequence is at MaxPoints.
	ErrTooManyPoints = errors.New("too many waypoints")
	// ErrTooManyCylinders indicates no cylinder slot is left for a new gas.
	ErrTooManyCylinders = dive.ErrTooManyCylinders
	// ErrRowOutOfRange indicates a row index outside the sequence.
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrInvalidValue indicates a negative depth/duration or an out-of-range setpoint.
	ErrInvalidValue = errors.New("invalid waypoint value")
	// ErrInvalidTransition indicates a mode change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid plan mode transition")
	// ErrNoActivePlan indicates an operation that needs PLAN or ADD mode.
	ErrNoActivePlan = errors.New("no active plan")
	// ErrEmptyPlan indicates a commit of a plan without waypoints.
	ErrEmptyPlan = errors.New("plan has no waypoints")
	// ErrNoEngine indicates the controller was built without a recalculation engine.
	ErrNoEngine = errors.New("no recalculation engine configured")
	// ErrNoStore indicates the controller was built without a dive store.
	ErrNoStore = errors.New("no dive store configured")
	// ErrNilDive indicates a nil dive passed where one is required.
	ErrNilDive = errors.New("nil dive")
	// ErrInvalidSetting indicates a planner setting outside its valid range.
	ErrInvalidSetting = errors.New("invalid planner setting")
)

// EditError records a rejected table edit with its cell address.
type EditError struct {
	Row    int
	Column Column
	Err    error
}

// Error returns a human-readable string including the cell address.
func (e *EditError) Error() string {
	return fmt.Sprintf("row %d, %s: %v", e.Row, e.Column, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *EditError) Unwrap() error {
	return e.Err
}
