package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/ports"
)

// ShiftHandler exposes the caller's own shift lifecycle.
type ShiftHandler struct {
	service ports.ShiftService
}

func NewShiftHandler(service ports.ShiftService) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// Start handles POST /v1/shifts/start.
//
// @Summary      Start a shift
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  shiftResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/shifts/start [post]
func (h *ShiftHandler) Start(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	rec, err := h.service.StartShift(c.Request().Context(), who.ID, who.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toShiftResponse(*rec, nil))
}

// End handles POST /v1/shifts/end.
//
// @Summary      End the active shift
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  shiftResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/shifts/end [post]
func (h *ShiftHandler) End(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	res, err := h.service.EndShift(c.Request().Context(), who.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShiftResponse(res.Record, &res.Duration))
}

// History handles GET /v1/shifts.
//
// @Summary      List the caller's recent shifts
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of shifts (1-100, default 10)"
// @Success      200    {object}  historyResponse
// @Failure      401    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/shifts [get]
func (h *ShiftHandler) History(c echo.Context) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var q historyQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	entries, err := h.service.History(c.Request().Context(), who.ID, q.Limit)
	if err != nil {
		return err
	}

	items := make([]shiftResponse, len(entries))
	for i, e := range entries {
		items[i] = toShiftResponse(e.Record, e.Duration)
	}
	return c.JSON(http.StatusOK, historyResponse{Items: items})
}
