package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, data map[string]string) (string, *domain.User, error)
}

func (s *stubAuthService) TelegramLogin(ctx context.Context, data map[string]string) (string, *domain.User, error) {
	return s.loginFn(ctx, data)
}

var validHash = strings.Repeat("ab", 32)

func TestAuthHandler_TelegramLogin_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, data map[string]string) (string, *domain.User, error) {
			if data["id"] != "42" || data["auth_date"] != "1700000000" || data["hash"] != validHash {
				t.Fatalf("unexpected signed fields: %v", data)
			}
			if data["first_name"] != "Anna" {
				t.Fatalf("first_name missing: %v", data)
			}
			if _, ok := data["last_name"]; ok {
				t.Fatalf("empty fields must not be forwarded: %v", data)
			}
			return "token123", &domain.User{ID: 42, Name: "Anna", Role: domain.RoleAdmin}, nil
		},
	}

	body := `{"id":42,"first_name":"Anna","auth_date":1700000000,"hash":"` + validHash + `"}`
	c, rec := newContext(e, http.MethodPost, "/auth/telegram", body, 0)

	if err := NewAuthHandler(stub).TelegramLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.User.Role != domain.RoleAdmin || resp.User.ID != 42 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_TelegramLogin_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, map[string]string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	c, rec := newContext(e, http.MethodPost, "/auth/telegram", "not-json", 0)

	_ = NewAuthHandler(stub).TelegramLogin(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_TelegramLogin_ValidationFailure(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, map[string]string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	c, _ := newContext(e, http.MethodPost, "/auth/telegram", `{"id":42,"auth_date":1700000000,"hash":"short"}`, 0)

	err := NewAuthHandler(stub).TelegramLogin(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if !strings.Contains(he.Message.(string), "hash") {
		t.Fatalf("expected message about hash, got %v", he.Message)
	}
}

func TestAuthHandler_TelegramLogin_Rejected(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, map[string]string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidTelegramAuth
		},
	}
	body := `{"id":42,"auth_date":1700000000,"hash":"` + validHash + `"}`
	c, _ := newContext(e, http.MethodPost, "/auth/telegram", body, 0)

	if err := NewAuthHandler(stub).TelegramLogin(c); !errors.Is(err, domain.ErrInvalidTelegramAuth) {
		t.Fatalf("expected ErrInvalidTelegramAuth, got %v", err)
	}
}
