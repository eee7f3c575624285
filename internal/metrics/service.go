package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

// InstrumentedShiftService records count, outcome and latency of every call
// before delegating to the wrapped service.
type InstrumentedShiftService struct {
	next ports.ShiftService
}

func Instrument(next ports.ShiftService) *InstrumentedShiftService {
	return &InstrumentedShiftService{next: next}
}

func (s *InstrumentedShiftService) StartShift(ctx context.Context, userID int64, userName string) (rec *domain.ShiftRecord, err error) {
	defer observe("start", time.Now(), &err)
	return s.next.StartShift(ctx, userID, userName)
}

func (s *InstrumentedShiftService) EndShift(ctx context.Context, userID int64) (res *ports.EndShiftResult, err error) {
	defer observe("end", time.Now(), &err)
	return s.next.EndShift(ctx, userID)
}

func (s *InstrumentedShiftService) History(ctx context.Context, userID int64, limit int) (h []ports.HistoryEntry, err error) {
	defer observe("history", time.Now(), &err)
	return s.next.History(ctx, userID, limit)
}

func (s *InstrumentedShiftService) ExportRows(ctx context.Context) (rows []ports.ExportRow, err error) {
	defer observe("export_rows", time.Now(), &err)
	return s.next.ExportRows(ctx)
}

func (s *InstrumentedShiftService) Export(ctx context.Context) (r *ports.Report, err error) {
	defer observe("export", time.Now(), &err)
	return s.next.Export(ctx)
}

func (s *InstrumentedShiftService) Statistics(ctx context.Context) (st []ports.UserStatistics, err error) {
	defer observe("statistics", time.Now(), &err)
	return s.next.Statistics(ctx)
}

func observe(op string, start time.Time, err *error) {
	ShiftOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	ShiftOperationsTotal.WithLabelValues(op, result(*err)).Inc()
}

func result(err error) string {
	var se *domain.StorageError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAlreadyActive):
		return "already_active"
	case errors.Is(err, domain.ErrNoActiveShift):
		return "no_active_shift"
	case errors.Is(err, domain.ErrNothingToExport):
		return "empty"
	case errors.As(err, &se):
		return "storage_error"
	default:
		return "error"
	}
}
