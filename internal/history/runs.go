package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ddpsdk/internal/ddp"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, mode, engine_binary, input_path, output_path, destination,
        exit_code, track_count, error_message, started_at, duration_ms`

// Record stores one invocation. It satisfies ddp.Recorder.
func (s *Store) Record(ctx context.Context, rec ddp.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record run: missing id")
	}
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.exec(
		ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode.String(),
		rec.Binary,
		rec.Input,
		nullableString(rec.Output),
		nullableString(rec.Destination),
		rec.ExitCode,
		rec.TrackCount,
		nullableString(rec.Error),
		started.UTC().Format(timeLayout),
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit uses
// DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]ddp.RunRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var records []ddp.RunRecord
	err := withBusyRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			rec, err := scanRun(rows)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ddp.RunRecord, error) {
	var (
		rec         ddp.RunRecord
		mode        string
		output      sql.NullString
		destination sql.NullString
		errMessage  sql.NullString
		startedAt   string
		durationMS  int64
	)
	if err := row.Scan(
		&rec.ID,
		&mode,
		&rec.Binary,
		&rec.Input,
		&output,
		&destination,
		&rec.ExitCode,
		&rec.TrackCount,
		&errMessage,
		&startedAt,
		&durationMS,
	); err != nil {
		return ddp.RunRecord{}, err
	}
	rec.Mode = parseMode(mode)
	rec.Output = output.String
	rec.Destination = destination.String
	rec.Error = errMessage.String
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(timeLayout, startedAt); err == nil {
		rec.StartedAt = ts
	}
	return rec, nil
}

func parseMode(value string) ddp.Mode {
	if value == ddp.ModeJSON.String() {
		return ddp.ModeJSON
	}
	return ddp.ModeProcess
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
