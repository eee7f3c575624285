package handler

import (
	"time"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

func toShiftResponse(r domain.ShiftRecord, d *time.Duration) shiftResponse {
	resp := shiftResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Status:    string(r.Status()),
		StartTime: r.StartTime.Format(domain.TimeLayout),
	}
	if r.EndTime != nil {
		end := r.EndTime.Format(domain.TimeLayout)
		resp.EndTime = &end
	}
	if d != nil {
		text := domain.FormatDuration(*d)
		resp.Duration = &text
	}
	return resp
}

func toExportRowResponse(r ports.ExportRow) exportRowResponse {
	return exportRowResponse{
		UserID:    r.UserID,
		UserName:  r.UserName,
		StartTime: r.StartTime.Format(domain.TimeLayout),
		EndTime:   r.EndText(domain.TimeLayout),
		Hours:     r.HoursText(),
	}
}

func toUserStatsResponse(s ports.UserStatistics) userStatsResponse {
	return userStatsResponse{
		UserID:      s.UserID,
		UserName:    s.UserName,
		ShiftCount:  s.ShiftCount,
		ActiveCount: s.ActiveCount,
		TotalHours:  s.TotalHours,
	}
}
