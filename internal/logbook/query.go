package logbook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dsh2/subsurface/internal/dive"
)

// Summary is one line of the dive list.
type Summary struct {
	Number    int
	UID       string
	When      time.Time
	Duration  int
	MaxDepth  int
	Mode      dive.Mode
	Cylinders int
	CreatedAt time.Time
}

// GetDive loads the dive with the given number.
func (s *Store) GetDive(ctx context.Context, number int) (*dive.Dive, error) {
	p1 := placeholder(s.driver, 1)
	d := &dive.Dive{Number: number}
	var when int64
	var mode int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT uid, start_time, duration, max_depth, surface_pressure, salinity, dive_mode, notes
		FROM dives WHERE number = %s`, p1), number).
		Scan(&d.UID, &when, &d.Duration, &d.MaxDepth, &d.SurfacePressure, &d.Salinity, &mode, &d.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrDiveNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("logbook: get dive %d: %w", number, err)
	}
	d.When = timeOrZero(when)
	d.Mode = dive.Mode(mode)

	if d.Cylinders, err = s.cylinders(ctx, number); err != nil {
		return nil, err
	}
	if d.Samples, err = s.samples(ctx, number); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) cylinders(ctx context.Context, number int) ([]dive.Cylinder, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT description, size_ml, working_pressure, start_pressure, end_pressure, o2, he, planned
		FROM cylinders WHERE dive_number = %s ORDER BY idx`, placeholder(s.driver, 1)), number)
	if err != nil {
		return nil, fmt.Errorf("logbook: query cylinders of dive %d: %w", number, err)
	}
	defer rows.Close()

	var cyls []dive.Cylinder
	for rows.Next() {
		var c dive.Cylinder
		var planned int
		if err := rows.Scan(&c.Description, &c.SizeML, &c.WorkingPressure, &c.StartPressure, &c.EndPressure,
			&c.Gas.O2, &c.Gas.He, &planned); err != nil {
			return nil, fmt.Errorf("logbook: scan cylinder: %w", err)
		}
		c.Planned = planned != 0
		cyls = append(cyls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("logbook: iterate cylinders: %w", err)
	}
	return cyls, nil
}

func (s *Store) samples(ctx context.Context, number int) ([]dive.Sample, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT time, depth, cylinder, setpoint, manual
		FROM samples WHERE dive_number = %s ORDER BY idx`, placeholder(s.driver, 1)), number)
	if err != nil {
		return nil, fmt.Errorf("logbook: query samples of dive %d: %w", number, err)
	}
	defer rows.Close()

	var samples []dive.Sample
	for rows.Next() {
		var smp dive.Sample
		var manual int
		if err := rows.Scan(&smp.Time, &smp.Depth, &smp.Cylinder, &smp.Setpoint, &manual); err != nil {
			return nil, fmt.Errorf("logbook: scan sample: %w", err)
		}
		smp.Manual = manual != 0
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("logbook: iterate samples: %w", err)
	}
	return samples, nil
}

// ListDives returns a summary of every dive ordered by number.
func (s *Store) ListDives(ctx context.Context) ([]Summary, error) {
	const q = `SELECT d.number, d.uid, d.start_time, d.duration, d.max_depth, d.dive_mode, d.created_at,
			(SELECT COUNT(*) FROM cylinders c WHERE c.dive_number = d.number)
		FROM dives d ORDER BY d.number`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("logbook: list dives: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var when, created int64
		var mode int
		if err := rows.Scan(&sum.Number, &sum.UID, &when, &sum.Duration, &sum.MaxDepth, &mode, &created, &sum.Cylinders); err != nil {
			return nil, fmt.Errorf("logbook: scan dive: %w", err)
		}
		sum.When = timeOrZero(when)
		sum.CreatedAt = timeOrZero(created)
		sum.Mode = dive.Mode(mode)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("logbook: iterate dives: %w", err)
	}
	return out, nil
}
