package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"riverwatch/internal/modules/conditions/types"
)

//go:embed sql/create-readings.sql
var createReadingsSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-readings-since.sql
var getReadingsSinceSQL string

// TimestampLayout is the only format written to ts_utc. It is fixed width and
// zero padded, so string comparison in SQL orders chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type ReadingsRepository interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, reading types.Reading) (types.StoredRecord, error)
	QueryLastHours(ctx context.Context, hours int) ([]types.StoredRecord, error)
}

type repositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*repositoryImpl)

// WithClock replaces time.Now as the reference for window queries.
func WithClock(now func() time.Time) Option {
	return func(r *repositoryImpl) {
		r.now = now
	}
}

func NewRepository(db *sql.DB, opts ...Option) ReadingsRepository {
	r := &repositoryImpl{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize creates the readings table if it does not exist.
func (r *repositoryImpl) Initialize(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createReadingsSQL); err != nil {
		return fmt.Errorf("create readings table: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Append(ctx context.Context, reading types.Reading) (types.StoredRecord, error) {
	var ts any
	if reading.Timestamp != nil {
		normalized := reading.Timestamp.UTC().Truncate(time.Millisecond)
		reading.Timestamp = &normalized
		ts = FormatTimestamp(normalized)
	}

	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		ts,
		nullable(reading.GageHeightFt),
		nullable(reading.WaterTempC),
		nullable(reading.AirTempC),
		nullable(reading.WindMph),
	)
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("insert reading: last insert id: %w", err)
	}
	return types.StoredRecord{ID: id, Reading: reading}, nil
}

var errInvalidHours = errors.New("hours must be > 0")

// QueryLastHours returns rows stamped at or after now-hours, oldest first.
// Rows without a timestamp never qualify.
func (r *repositoryImpl) QueryLastHours(ctx context.Context, hours int) ([]types.StoredRecord, error) {
	if hours <= 0 {
		return nil, errInvalidHours
	}
	cutoff := r.now().UTC().Add(-time.Duration(hours) * time.Hour)

	rows, err := r.db.QueryContext(ctx, getReadingsSinceSQL, FormatTimestamp(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.StoredRecord, error) {
	out := []types.StoredRecord{}
	for rows.Next() {
		var rec types.StoredRecord
		var ts sql.NullString
		if err := rows.Scan(&rec.ID, &ts, &rec.GageHeightFt, &rec.WaterTempC, &rec.AirTempC, &rec.WindMph); err != nil {
			return nil, err
		}
		if ts.Valid {
			t, err := ParseTimestamp(ts.String)
			if err != nil {
				return nil, err
			}
			rec.Timestamp = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a ts_utc value. RFC3339 is accepted for rows written
// by other tools.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w; RFC3339Nano: %w", s, err, err2)
		}
	}
	return t.UTC(), nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
