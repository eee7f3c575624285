package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

type adminSet map[int64]bool

func (s adminSet) IsAdmin(userID int64) bool { return s[userID] }

func runRBAC(t *testing.T, policy adminSet, userID int64, claimedRole string, allowed ...string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set(KeyUserID, userID)
	}
	if claimedRole != "" {
		c.Set(KeyRole, claimedRole)
	}

	called := false
	handler := RBAC(policy, allowed...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestRBAC_AllowsCurrentAdmin(t *testing.T) {
	rec, called := runRBAC(t, adminSet{1: true}, 1, domain.RoleAdmin, domain.RoleAdmin)
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_ForbidsEmployee(t *testing.T) {
	rec, called := runRBAC(t, adminSet{1: true}, 7, domain.RoleEmployee, domain.RoleAdmin)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (called=%v)", rec.Code, called)
	}
}

func TestRBAC_IgnoresStaleAdminClaim(t *testing.T) {
	// token still says admin, but the user was removed from the admin list
	rec, called := runRBAC(t, adminSet{}, 7, domain.RoleAdmin, domain.RoleAdmin)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (called=%v)", rec.Code, called)
	}
}

func TestRBAC_PromotesNewAdmin(t *testing.T) {
	rec, called := runRBAC(t, adminSet{7: true}, 7, domain.RoleEmployee, domain.RoleAdmin)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (called=%v)", rec.Code, called)
	}
}

func TestRBAC_ForbidsMissingUser(t *testing.T) {
	rec, called := runRBAC(t, adminSet{}, 0, "", domain.RoleAdmin, domain.RoleEmployee)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (called=%v)", rec.Code, called)
	}
}

func TestRBAC_NilPolicyTreatsEveryoneAsEmployee(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(KeyUserID, int64(1))

	var seen string
	handler := RBAC(nil, domain.RoleEmployee)(func(c echo.Context) error {
		seen, _ = c.Get(KeyRole).(string)
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if seen != domain.RoleEmployee {
		t.Fatalf("expected employee role, got %q", seen)
	}
}
