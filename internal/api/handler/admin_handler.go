package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/ports"
)

// AdminHandler serves reporting endpoints. Routes are mounted behind RBAC.
type AdminHandler struct {
	service ports.ShiftService
}

func NewAdminHandler(service ports.ShiftService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Per-employee statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.service.Statistics(c.Request().Context())
	if err != nil {
		return err
	}

	users := make([]userStatsResponse, len(stats))
	for i, s := range stats {
		users[i] = toUserStatsResponse(s)
	}
	return c.JSON(http.StatusOK, statsResponse{Users: users})
}

// ExportRows handles GET /v1/admin/export/rows.
//
// @Summary      All shifts as report rows
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  exportRowsResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/admin/export/rows [get]
func (h *AdminHandler) ExportRows(c echo.Context) error {
	rows, err := h.service.ExportRows(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]exportRowResponse, len(rows))
	for i, r := range rows {
		out[i] = toExportRowResponse(r)
	}
	return c.JSON(http.StatusOK, exportRowsResponse{Rows: out})
}

// Export handles GET /v1/admin/export.
//
// @Summary      Download the shift report
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}    file
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/admin/export [get]
func (h *AdminHandler) Export(c echo.Context) error {
	rep, err := h.service.Export(c.Request().Context())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.Filename))
	c.Response().Header().Set("X-Report-Rows", fmt.Sprint(rep.Rows))
	return c.Blob(http.StatusOK, rep.ContentType, rep.Content)
}
