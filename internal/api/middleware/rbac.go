package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

// RBAC enforces role-based access control. The caller's role is resolved
// from policy on every request rather than trusted from the token, so
// removing someone from the admin list takes effect immediately.
func RBAC(policy ports.AdminPolicy, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(KeyUserID).(int64)
			role := currentRole(policy, userID)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			c.Set(KeyRole, role)
			return next(c)
		}
	}
}

func currentRole(policy ports.AdminPolicy, userID int64) string {
	switch {
	case userID == 0:
		return ""
	case policy != nil && policy.IsAdmin(userID):
		return domain.RoleAdmin
	default:
		return domain.RoleEmployee
	}
}
