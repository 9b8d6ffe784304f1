package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cast"

	"github.com/dsh2/subsurface/internal/config"
	"github.com/dsh2/subsurface/internal/deco"
	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/logbook"
	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/planner"
	"github.com/dsh2/subsurface/internal/telemetry"
	"github.com/dsh2/subsurface/internal/ui"
)

// errBadStop is returned for a --stop value that does not parse.
var errBadStop = errors.New("stop must be DEPTH:DURATION[:GAS]")

// session bundles what a command needs to drive a planner.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	events  *telemetry.Emitter
	store   *logbook.Store
}

// newSession loads the configuration and opens the telemetry log. The
// logbook is opened only when withStore is set.
func newSession(ctx context.Context, withStore bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s := &session{cfg: cfg, printer: ui.NewWriter(os.Stderr, cfg.NoColor)}

	if cfg.Telemetry.Path != "" {
		if s.events, err = telemetry.NewEmitter(cfg.Telemetry.Path); err != nil {
			return nil, err
		}
	}
	if withStore {
		if s.store, err = openLogbook(ctx, cfg.Logbook); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the logbook and the telemetry log.
func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if err := s.events.Close(); err != nil && s.cfg.Verbose {
		s.printer.Warn(fmt.Sprintf("telemetry: %v", err))
	}
}

// controller builds a planner with the configured settings, wired to the
// logbook and telemetry of the session.
func (s *session) controller() (*planner.Controller, error) {
	settings, err := s.cfg.Planner.Settings()
	if err != nil {
		return nil, err
	}
	opts := []planner.Option{planner.WithSettings(settings), planner.WithEmitter(s.events)}
	if s.store != nil {
		opts = append(opts, planner.WithStore(s.store))
	}
	return planner.New(deco.New(), opts...), nil
}

// openLogbook opens the configured store. For SQLite the parent directory of
// the database file is created on demand.
func openLogbook(ctx context.Context, lc config.LogbookConfig) (*logbook.Store, error) {
	driver := strings.ToLower(lc.Driver)
	if (driver == "" || driver == logbook.DriverSQLite) && lc.DSN != ":memory:" && !strings.HasPrefix(lc.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(lc.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logbook directory: %w", err)
		}
	}
	store, err := logbook.Open(ctx, lc.Driver, lc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open logbook: %w", err)
	}
	return store, nil
}

// parseStop reads a --stop value: depth in meters, a duration that is either
// a Go duration ("90s", "2m30s") or plain minutes, and an optional gas.
func parseStop(v string) (planfile.Stop, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return planfile.Stop{}, fmt.Errorf("%w: %q", errBadStop, v)
	}
	depth, err := cast.ToFloat64E(strings.TrimSuffix(strings.TrimSpace(parts[0]), "m"))
	if err != nil || depth < 0 {
		return planfile.Stop{}, fmt.Errorf("%w: depth %q", errBadStop, parts[0])
	}
	dur, err := parseMinutes(strings.TrimSpace(parts[1]))
	if err != nil || dur <= 0 {
		return planfile.Stop{}, fmt.Errorf("%w: duration %q", errBadStop, parts[1])
	}
	st := planfile.Stop{Depth: int(depth*1000 + 0.5), Duration: int(dur / time.Second)}
	if len(parts) == 3 {
		gas, err := dive.ParseGasMix(parts[2])
		if err != nil {
			return planfile.Stop{}, fmt.Errorf("%w: %w", errBadStop, err)
		}
		st.Gas = &gas
	}
	return st, nil
}

func parseMinutes(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	m, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(m * float64(time.Minute)), nil
}

// isStderrTTY reports whether stderr is attached to a terminal.
func isStderrTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
