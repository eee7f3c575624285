// Package sqlstore persists shifts in a relational database. SQLite is the
// default backend; PostgreSQL is supported through the same queries.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const shiftColumns = `id, user_id, user_name, start_time, end_time, comment`

// Config captures the settings required to open a Store.
type Config struct {
	Driver   string
	DSN      string
	Location *time.Location
	Timeout  time.Duration
}

// Store implements ports.ShiftStore on database/sql.
//
// Writes run inside a transaction while holding mu, so the check for an
// active shift and the insert that follows cannot interleave. The partial
// unique index on (user_id) WHERE end_time IS NULL guards the same invariant
// for writers outside this process.
type Store struct {
	db      *sql.DB
	dialect dialect
	loc     *time.Location
	timeout time.Duration
	logger  zerolog.Logger
	mu      sync.Mutex
}

// Open connects, verifies connectivity and migrates the schema.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := d.dsn(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// one writer at a time; keeps transactions from tripping SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	s := &Store{
		db:      db,
		dialect: d,
		loc:     cfg.Location,
		timeout: cfg.Timeout,
		logger:  logger.With().Str("component", "sqlstore").Str("driver", d.name).Logger(),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info().Msg("shift store ready")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return domain.NewStorageError("migrate", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return domain.NewStorageError("ping", s.db.PingContext(ctx))
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateShift inserts an active shift, or returns domain.ErrShiftConflict
// when the user already has one.
func (s *Store) CreateShift(ctx context.Context, userID int64, userName string, startTime time.Time) (*domain.ShiftRecord, error) {
	const op = "create shift"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.activeShift(ctx, tx, userID); err == nil {
		return nil, domain.ErrShiftConflict
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewStorageError(op, err)
	}

	start := domain.FormatTime(startTime, s.loc)
	var id int64
	err = tx.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO shifts (user_id, user_name, start_time) VALUES (?, ?, ?) RETURNING id`),
		userID, userName, start,
	).Scan(&id)
	if err != nil {
		if s.dialect.isUnique(err) {
			return nil, domain.ErrShiftConflict
		}
		return nil, domain.NewStorageError(op, err)
	}

	if err := tx.Commit(); err != nil {
		if s.dialect.isUnique(err) {
			return nil, domain.ErrShiftConflict
		}
		return nil, domain.NewStorageError(op, err)
	}

	started, err := domain.ParseTime(start, s.loc)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return &domain.ShiftRecord{ID: id, UserID: userID, UserName: userName, StartTime: started}, nil
}

// CloseActiveShift sets end_time on the user's active shift. An end time
// before the start is clamped to the start.
func (s *Store) CloseActiveShift(ctx context.Context, userID int64, endTime time.Time) (*domain.ShiftRecord, error) {
	const op = "close shift"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := s.activeShift(ctx, tx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShiftNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	end := endTime.In(s.loc).Truncate(time.Second)
	if end.Before(rec.StartTime) {
		end = rec.StartTime
	}

	res, err := tx.ExecContext(ctx,
		s.dialect.rebind(`UPDATE shifts SET end_time = ? WHERE id = ? AND end_time IS NULL`),
		domain.FormatTime(end, s.loc), rec.ID,
	)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrShiftNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	rec.EndTime = &end
	return rec, nil
}

func (s *Store) ListShiftsForUser(ctx context.Context, userID int64, limit int) ([]domain.ShiftRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind(`SELECT `+shiftColumns+` FROM shifts WHERE user_id = ?
			ORDER BY start_time DESC, id DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, domain.NewStorageError("list user shifts", err)
	}
	return s.collect(rows, "list user shifts")
}

func (s *Store) ListAllShifts(ctx context.Context) ([]domain.ShiftRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts ORDER BY start_time DESC, id DESC`)
	if err != nil {
		return nil, domain.NewStorageError("list shifts", err)
	}
	return s.collect(rows, "list shifts")
}

// AggregateByUser folds every shift, read in id order, into per-user totals.
func (s *Store) AggregateByUser(ctx context.Context) ([]domain.UserAggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+shiftColumns+` FROM shifts ORDER BY id ASC`)
	if err != nil {
		return nil, domain.NewStorageError("aggregate", err)
	}
	records, err := s.collect(rows, "aggregate")
	if err != nil {
		return nil, err
	}
	return domain.Aggregate(records), nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// activeShift returns sql.ErrNoRows when the user has no open shift.
func (s *Store) activeShift(ctx context.Context, q queryRower, userID int64) (*domain.ShiftRecord, error) {
	row := q.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+shiftColumns+` FROM shifts WHERE user_id = ? AND end_time IS NULL`),
		userID,
	)
	return s.scan(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (*domain.ShiftRecord, error) {
	var (
		rec     domain.ShiftRecord
		start   string
		end     sql.NullString
		comment sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.UserName, &start, &end, &comment); err != nil {
		return nil, err
	}

	t, err := domain.ParseTime(start, s.loc)
	if err != nil {
		return nil, err
	}
	rec.StartTime = t

	if end.Valid {
		e, err := domain.ParseTime(end.String, s.loc)
		if err != nil {
			return nil, err
		}
		rec.EndTime = &e
	}
	if comment.Valid {
		c := comment.String
		rec.Comment = &c
	}
	return &rec, nil
}

func (s *Store) collect(rows *sql.Rows, op string) ([]domain.ShiftRecord, error) {
	defer rows.Close()

	var out []domain.ShiftRecord
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return out, nil
}
