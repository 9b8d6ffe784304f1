// Package logbook persists committed dives. The embedded SQLite driver is the
// default; PostgreSQL is reached through the pgx database/sql driver for
// shared logbooks.
package logbook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver.
	_ "modernc.org/sqlite"             // Pure-Go SQLite driver.

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planner"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var (
	// ErrDiveNotFound is returned when no dive carries the requested number.
	ErrDiveNotFound = errors.New("dive not found")
	// ErrUnsupportedDriver is returned by Open for an unknown driver name.
	ErrUnsupportedDriver = errors.New("unsupported logbook driver")
)

// schema is executed one statement at a time on every open; IF NOT EXISTS
// keeps it idempotent. Column types are chosen to mean the same thing in
// SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS dives (
    number           INTEGER PRIMARY KEY,
    uid              TEXT NOT NULL,
    start_time       BIGINT NOT NULL DEFAULT 0,
    duration         INTEGER NOT NULL DEFAULT 0,
    max_depth        INTEGER NOT NULL DEFAULT 0,
    surface_pressure INTEGER NOT NULL DEFAULT 0,
    salinity         INTEGER NOT NULL DEFAULT 0,
    dive_mode        INTEGER NOT NULL DEFAULT 0,
    notes            TEXT NOT NULL DEFAULT '',
    created_at       BIGINT NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS cylinders (
    dive_number      INTEGER NOT NULL,
    idx              INTEGER NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    size_ml          INTEGER NOT NULL DEFAULT 0,
    working_pressure INTEGER NOT NULL DEFAULT 0,
    start_pressure   INTEGER NOT NULL DEFAULT 0,
    end_pressure     INTEGER NOT NULL DEFAULT 0,
    o2               INTEGER NOT NULL,
    he               INTEGER NOT NULL DEFAULT 0,
    planned          INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (dive_number, idx)
)`,
	`CREATE TABLE IF NOT EXISTS samples (
    dive_number INTEGER NOT NULL,
    idx         INTEGER NOT NULL,
    time        INTEGER NOT NULL,
    depth       INTEGER NOT NULL,
    cylinder    INTEGER NOT NULL DEFAULT 0,
    setpoint    INTEGER NOT NULL DEFAULT 0,
    manual      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (dive_number, idx)
)`,
}

// Store is a dive logbook backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

var _ planner.Store = (*Store)(nil)

// Open connects to the logbook. For DriverSQLite dsn is a file path; for
// DriverPostgres it is a PostgreSQL connection string. The schema is created
// if missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("logbook: empty %s dsn", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("logbook: open database: %w", err)
	}

	switch driver {
	case DriverSQLite:
		// SQLite has a single writer; one connection keeps the pragmas in
		// effect for every statement.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("logbook: %s: %w", pragma, err)
			}
		}
	case DriverPostgres:
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("logbook: connect: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("logbook: create schema: %w", err)
		}
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	return s.driver
}

// placeholder returns the n-th (1-based) bind parameter for driver.
func placeholder(driver string, n int) string {
	if driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// placeholders returns count comma separated bind parameters.
func placeholders(driver string, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = placeholder(driver, i+1)
	}
	return strings.Join(ps, ", ")
}

// SaveDive writes d with its cylinders and samples in one transaction. A dive
// without a number gets the next free one and a dive without a UID gets a
// fresh one; both are written back to d once the transaction commits. An
// existing dive with the same number is replaced.
func (s *Store) SaveDive(ctx context.Context, d *dive.Dive) error {
	if d == nil {
		return planner.ErrNilDive
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("logbook: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	number, uid := d.Number, d.UID
	if number <= 0 {
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(number), 0) + 1 FROM dives").Scan(&number); err != nil {
			return fmt.Errorf("logbook: next dive number: %w", err)
		}
	}
	if uid == "" {
		uid = uuid.NewString()
	}

	upsert := fmt.Sprintf(`INSERT INTO dives (number, uid, start_time, duration, max_depth, surface_pressure, salinity, dive_mode, notes, created_at)
		VALUES (%s)
		ON CONFLICT(number) DO UPDATE SET
			uid = excluded.uid,
			start_time = excluded.start_time,
			duration = excluded.duration,
			max_depth = excluded.max_depth,
			surface_pressure = excluded.surface_pressure,
			salinity = excluded.salinity,
			dive_mode = excluded.dive_mode,
			notes = excluded.notes`, placeholders(s.driver, 10))
	if _, err := tx.ExecContext(ctx, upsert,
		number, uid, unixOrZero(d.When), d.Duration, d.MaxDepth, d.SurfacePressure,
		d.Salinity, int(d.Mode), d.Notes, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("logbook: save dive %d: %w", number, err)
	}

	for _, table := range []string{"cylinders", "samples"} {
		q := fmt.Sprintf("DELETE FROM %s WHERE dive_number = %s", table, placeholder(s.driver, 1))
		if _, err := tx.ExecContext(ctx, q, number); err != nil {
			return fmt.Errorf("logbook: clear %s of dive %d: %w", table, number, err)
		}
	}

	cylStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO cylinders
		(dive_number, idx, description, size_ml, working_pressure, start_pressure, end_pressure, o2, he, planned)
		VALUES (%s)`, placeholders(s.driver, 10)))
	if err != nil {
		return fmt.Errorf("logbook: prepare cylinder insert: %w", err)
	}
	defer cylStmt.Close()
	for i, c := range d.Cylinders {
		if _, err := cylStmt.ExecContext(ctx, number, i, c.Description, c.SizeML, c.WorkingPressure,
			c.StartPressure, c.EndPressure, c.Gas.O2, c.Gas.He, boolInt(c.Planned)); err != nil {
			return fmt.Errorf("logbook: save cylinder %d of dive %d: %w", i, number, err)
		}
	}

	sampleStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO samples
		(dive_number, idx, time, depth, cylinder, setpoint, manual)
		VALUES (%s)`, placeholders(s.driver, 7)))
	if err != nil {
		return fmt.Errorf("logbook: prepare sample insert: %w", err)
	}
	defer sampleStmt.Close()
	for i, smp := range d.Samples {
		if _, err := sampleStmt.ExecContext(ctx, number, i, smp.Time, smp.Depth, smp.Cylinder,
			smp.Setpoint, boolInt(smp.Manual)); err != nil {
			return fmt.Errorf("logbook: save sample %d of dive %d: %w", i, number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("logbook: commit dive %d: %w", number, err)
	}
	d.Number, d.UID = number, uid
	return nil
}

// DeleteDive removes a dive with its cylinders and samples.
func (s *Store) DeleteDive(ctx context.Context, number int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("logbook: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	p1 := placeholder(s.driver, 1)
	res, err := tx.ExecContext(ctx, "DELETE FROM dives WHERE number = "+p1, number)
	if err != nil {
		return fmt.Errorf("logbook: delete dive %d: %w", number, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrDiveNotFound, number)
	}
	for _, table := range []string{"cylinders", "samples"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE dive_number = "+p1, number); err != nil {
			return fmt.Errorf("logbook: delete %s of dive %d: %w", table, number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("logbook: commit delete of dive %d: %w", number, err)
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
