package ports

import (
	"context"
	"time"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

// ShiftStore is the durable table of shift records. Implementations enforce
// the one-active-shift-per-user invariant at write time and report driver
// failures as *domain.StorageError.
type ShiftStore interface {
	// CreateShift inserts an active shift. Returns domain.ErrShiftConflict when
	// the user already has one; the check and the insert are atomic.
	CreateShift(ctx context.Context, userID int64, userName string, startTime time.Time) (*domain.ShiftRecord, error)

	// CloseActiveShift sets end_time on the user's active shift.
	// Returns domain.ErrShiftNotFound when there is none.
	CloseActiveShift(ctx context.Context, userID int64, endTime time.Time) (*domain.ShiftRecord, error)

	// ListShiftsForUser returns at most limit records, newest start first.
	ListShiftsForUser(ctx context.Context, userID int64, limit int) ([]domain.ShiftRecord, error)

	// ListAllShifts returns every record, newest start first.
	ListAllShifts(ctx context.Context) ([]domain.ShiftRecord, error)

	// AggregateByUser returns per-user totals ordered by each user's first shift.
	AggregateByUser(ctx context.Context) ([]domain.UserAggregate, error)

	Ping(ctx context.Context) error
	Close() error
}
