package ports

import (
	"context"
	"strconv"
	"time"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

// ExportHeaders are the column headers handed to the report builder.
var ExportHeaders = []string{"ID", "Name", "Shift Start", "Shift End", "Hours"}

// EndShiftResult is returned by EndShift.
type EndShiftResult struct {
	Record   domain.ShiftRecord
	Duration time.Duration
}

// HistoryEntry is one row of a user's shift history.
// Duration is nil while the shift is active.
type HistoryEntry struct {
	Record   domain.ShiftRecord
	Duration *time.Duration
}

// ExportRow is one denormalized record for tabular reporting.
type ExportRow struct {
	UserID    int64
	UserName  string
	StartTime time.Time
	EndTime   *time.Time
	Hours     *float64 // two decimals; nil while in progress
}

// EndText renders the end column, or domain.InProgress for an open shift.
func (r ExportRow) EndText(layout string) string {
	if r.EndTime == nil {
		return domain.InProgress
	}
	return r.EndTime.Format(layout)
}

// HoursText renders the hours column, or domain.NoHours for an open shift.
func (r ExportRow) HoursText() string {
	if r.Hours == nil {
		return domain.NoHours
	}
	return strconv.FormatFloat(*r.Hours, 'f', 2, 64)
}

// UserStatistics is the admin rollup for one user.
type UserStatistics struct {
	UserID      int64
	UserName    string
	ShiftCount  int
	ActiveCount int
	TotalHours  float64
}

// Report is the generated export file.
type Report struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// ShiftService is the only entry point transport adapters use.
type ShiftService interface {
	StartShift(ctx context.Context, userID int64, userName string) (*domain.ShiftRecord, error)
	EndShift(ctx context.Context, userID int64) (*EndShiftResult, error)
	History(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
	ExportRows(ctx context.Context) ([]ExportRow, error)
	Export(ctx context.Context) (*Report, error)
	Statistics(ctx context.Context) ([]UserStatistics, error)
}
