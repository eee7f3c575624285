package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/api/middleware"
	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

type stubShiftService struct {
	startFn      func(ctx context.Context, userID int64, userName string) (*domain.ShiftRecord, error)
	endFn        func(ctx context.Context, userID int64) (*ports.EndShiftResult, error)
	historyFn    func(ctx context.Context, userID int64, limit int) ([]ports.HistoryEntry, error)
	exportRowsFn func(ctx context.Context) ([]ports.ExportRow, error)
	exportFn     func(ctx context.Context) (*ports.Report, error)
	statsFn      func(ctx context.Context) ([]ports.UserStatistics, error)
}

func (s *stubShiftService) StartShift(ctx context.Context, userID int64, userName string) (*domain.ShiftRecord, error) {
	return s.startFn(ctx, userID, userName)
}

func (s *stubShiftService) EndShift(ctx context.Context, userID int64) (*ports.EndShiftResult, error) {
	return s.endFn(ctx, userID)
}

func (s *stubShiftService) History(ctx context.Context, userID int64, limit int) ([]ports.HistoryEntry, error) {
	return s.historyFn(ctx, userID, limit)
}

func (s *stubShiftService) ExportRows(ctx context.Context) ([]ports.ExportRow, error) {
	return s.exportRowsFn(ctx)
}

func (s *stubShiftService) Export(ctx context.Context) (*ports.Report, error) {
	return s.exportFn(ctx)
}

func (s *stubShiftService) Statistics(ctx context.Context) ([]ports.UserStatistics, error) {
	return s.statsFn(ctx)
}

var msk = time.FixedZone("MSK", 3*60*60)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, msk)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context carrying the claims Auth would set.
func newContext(e *echo.Echo, method, target, body string, userID int64) (echo.Context, *httptest.ResponseRecorder) {
	var req = httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set(middleware.KeyUserID, userID)
		c.Set(middleware.KeyName, "Anna Petrova")
		c.Set(middleware.KeyRole, domain.RoleEmployee)
	}
	return c, rec
}
