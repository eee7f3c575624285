package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/api/middleware"
)

// caller is the authenticated user behind a request.
type caller struct {
	ID   int64
	Name string
	Role string
}

// ctxCaller extracts the claims injected by the Auth middleware and fails
// fast when they are missing, which means the route was mounted without it.
func ctxCaller(c echo.Context) (caller, error) {
	id, _ := c.Get(middleware.KeyUserID).(int64)
	if id == 0 {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get(middleware.KeyName).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	return caller{ID: id, Name: name, Role: role}, nil
}
