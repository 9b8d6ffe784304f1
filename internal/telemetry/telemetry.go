// Package telemetry provides a JSONL event stream for planner sessions. Mode
// transitions, recalculations, waypoint and cylinder changes, commits and
// cancellations are recorded as structured JSON events so a planning session
// can be audited after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds identify the type of telemetry event.
const (
	KindSessionStart  = "session_start"
	KindModeChange    = "mode_change"
	KindStopAdded     = "stop_added"
	KindStopEdited    = "stop_edited"
	KindStopsRemoved  = "stops_removed"
	KindGasAdded      = "gas_added"
	KindTankPruned    = "tank_pruned"
	KindRecalculated  = "recalculated"
	KindRecalcFailed  = "recalc_failed"
	KindPlanCommitted = "plan_committed"
	KindCommitFailed  = "commit_failed"
	KindPlanCanceled  = "plan_canceled"
	KindEditRejected  = "edit_rejected"
)

// Event represents a single telemetry record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Session   string    `json:"session,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events as JSON lines. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	w       io.Writer
	closer  io.Closer
	enc     *json.Encoder
	session string
	mu      sync.Mutex
}

// NewEmitter creates an Emitter that appends JSONL events to the file at
// path, creating it if needed.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	e := NewWriterEmitter(f)
	e.closer = f
	return e, nil
}

// NewWriterEmitter creates an Emitter writing to w. Close does not close w.
func NewWriterEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:       w,
		enc:     json.NewEncoder(w),
		session: uuid.NewString(),
	}
}

// Session returns the identifier stamped on every event of this emitter.
func (e *Emitter) Session() string {
	if e == nil {
		return ""
	}
	return e.session
}

// Emit writes a single event. A zero Timestamp is set to now and an empty
// Session is filled with the emitter's session. Calling Emit on a nil Emitter
// is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.Session == "" {
		evt.Session = e.session
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file if the emitter opened one. Calling Close
// on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closer.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
