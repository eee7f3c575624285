package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
	"github.com/workshift/shift-tracker/internal/pkg/clock"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ShiftService implements the shift lifecycle on top of a ShiftStore.
// It holds no per-call state; all shared state lives in the store.
type ShiftService struct {
	store   ports.ShiftStore
	clock   clock.Clock
	reports ports.ReportBuilder
	logger  zerolog.Logger
}

func NewShiftService(store ports.ShiftStore, clk clock.Clock, reports ports.ReportBuilder, logger zerolog.Logger) *ShiftService {
	return &ShiftService{store: store, clock: clk, reports: reports, logger: logger}
}

// StartShift opens a shift for the user at the current reference time.
func (s *ShiftService) StartShift(ctx context.Context, userID int64, userName string) (*domain.ShiftRecord, error) {
	rec, err := s.store.CreateShift(ctx, userID, userName, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrShiftConflict) {
			return nil, domain.ErrAlreadyActive
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to start shift")
		return nil, fmt.Errorf("start shift: %w", err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("shift_id", rec.ID).Msg("shift started")
	return rec, nil
}

// EndShift closes the user's active shift and reports how long it lasted.
func (s *ShiftService) EndShift(ctx context.Context, userID int64) (*ports.EndShiftResult, error) {
	rec, err := s.store.CloseActiveShift(ctx, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrShiftNotFound) {
			return nil, domain.ErrNoActiveShift
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to end shift")
		return nil, fmt.Errorf("end shift: %w", err)
	}

	d, _ := rec.Duration()
	s.logger.Info().
		Int64("user_id", userID).
		Int64("shift_id", rec.ID).
		Dur("duration", d).
		Msg("shift ended")

	return &ports.EndShiftResult{Record: *rec, Duration: d}, nil
}

// History returns the user's most recent shifts, newest first.
// A non-positive limit selects DefaultHistoryLimit.
func (s *ShiftService) History(ctx context.Context, userID int64, limit int) ([]ports.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	records, err := s.store.ListShiftsForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	out := make([]ports.HistoryEntry, len(records))
	for i, r := range records {
		out[i] = ports.HistoryEntry{Record: r}
		if d, ok := r.Duration(); ok {
			out[i].Duration = &d
		}
	}
	return out, nil
}

// ExportRows returns every shift as a denormalized row, newest first.
func (s *ShiftService) ExportRows(ctx context.Context) ([]ports.ExportRow, error) {
	records, err := s.store.ListAllShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}

	rows := make([]ports.ExportRow, len(records))
	for i, r := range records {
		rows[i] = ports.ExportRow{
			UserID:    r.UserID,
			UserName:  r.UserName,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		}
		if d, ok := r.Duration(); ok {
			h := domain.RoundHours(domain.Hours(d))
			rows[i].Hours = &h
		}
	}
	return rows, nil
}

// Export renders all shifts through the report builder.
// Returns domain.ErrNothingToExport when no shift has been recorded yet.
func (s *ShiftService) Export(ctx context.Context) (*ports.Report, error) {
	rows, err := s.ExportRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNothingToExport
	}

	content, err := s.reports.Build(ports.ExportHeaders, rows)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build report")
		return nil, fmt.Errorf("export: build report: %w", err)
	}

	s.logger.Info().Int("rows", len(rows)).Msg("report exported")

	return &ports.Report{
		Filename:    reportFilename(s.clock.Now(), s.reports.Extension()),
		ContentType: s.reports.ContentType(),
		Content:     content,
		Rows:        len(rows),
	}, nil
}

// Statistics returns per-user totals ordered by shift count, highest first.
// Users with equal counts keep the store's aggregation order.
func (s *ShiftService) Statistics(ctx context.Context) ([]ports.UserStatistics, error) {
	aggs, err := s.store.AggregateByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	out := make([]ports.UserStatistics, len(aggs))
	for i, a := range aggs {
		out[i] = ports.UserStatistics{
			UserID:      a.UserID,
			UserName:    a.UserName,
			ShiftCount:  a.ShiftCount,
			ActiveCount: a.ActiveCount,
			TotalHours:  domain.RoundHours(a.TotalHours),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ShiftCount > out[j].ShiftCount
	})
	return out, nil
}

// reportFilename returns shifts_YYYYMMDD_HHMM.<ext>.
func reportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("shifts_%s.%s", now.Format("20060102_1504"), ext)
}
