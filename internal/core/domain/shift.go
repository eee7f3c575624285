package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimeLayout is the persisted timestamp format, always in the reference timezone.
const TimeLayout = "2006-01-02 15:04:05"

// Sentinels rendered in export rows for shifts that are still open.
const (
	InProgress = "in-progress"
	NoHours    = "-"
)

// ShiftStatus represents the lifecycle state of a single shift record.
type ShiftStatus string

const (
	StatusActive ShiftStatus = "active"
	StatusClosed ShiftStatus = "closed"
)

// Store-level outcomes. The service maps them to the user-facing errors below.
var ErrShiftConflict = errors.New("active shift already exists")
var ErrShiftNotFound = errors.New("active shift not found")

// User-facing outcomes of the shift lifecycle.
var ErrAlreadyActive = errors.New("shift already active")
var ErrNoActiveShift = errors.New("no active shift")
var ErrNothingToExport = errors.New("no shifts to export")

// StorageError reports a failure of the durable layer. It is never retried by
// the core and always unwraps to the driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it is nil or already a StorageError.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ShiftRecord is one bounded interval of work time for one user.
type ShiftRecord struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	UserName  string     `json:"user_name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Comment   *string    `json:"comment,omitempty"`
}

// Status reports whether the shift is still open.
func (s *ShiftRecord) Status() ShiftStatus {
	if s.EndTime == nil {
		return StatusActive
	}
	return StatusClosed
}

// Duration returns end - start for a closed shift, false while active.
func (s *ShiftRecord) Duration() (time.Duration, bool) {
	if s.EndTime == nil {
		return 0, false
	}
	d := s.EndTime.Sub(s.StartTime)
	if d < 0 {
		d = 0
	}
	return d, true
}

// Hours returns the closed duration in fractional hours.
func Hours(d time.Duration) float64 {
	return d.Seconds() / 3600
}

// RoundHours rounds to two decimal places.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// UserAggregate is the per-user rollup computed by the store.
type UserAggregate struct {
	UserID      int64
	UserName    string
	ShiftCount  int
	ActiveCount int
	TotalHours  float64
}

// Aggregate folds records (ascending by ID) into per-user totals. Users appear
// in the order of their first shift; UserName is taken from the latest one.
func Aggregate(records []ShiftRecord) []UserAggregate {
	index := make(map[int64]int)
	out := make([]UserAggregate, 0)
	for _, r := range records {
		i, ok := index[r.UserID]
		if !ok {
			i = len(out)
			index[r.UserID] = i
			out = append(out, UserAggregate{UserID: r.UserID})
		}
		agg := &out[i]
		agg.UserName = r.UserName
		agg.ShiftCount++
		if d, closed := r.Duration(); closed {
			agg.TotalHours += Hours(d)
		} else {
			agg.ActiveCount++
		}
	}
	return out
}

// FormatDuration renders d as H:MM:SS, prefixed with whole days when longer
// than 24h ("1 day, 2:03:04").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	clock := fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}

// FormatTime renders t in the persisted layout.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

// ParseTime reads a persisted timestamp in the reference timezone.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, loc)
}
