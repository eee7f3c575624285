package ports

import (
	"context"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

// AdminPolicy decides whether a caller may run admin operations
// (statistics and export).
type AdminPolicy interface {
	IsAdmin(userID int64) bool
}

// AuthService exchanges a Telegram login-widget payload for an API token.
type AuthService interface {
	TelegramLogin(ctx context.Context, data map[string]string) (string, *domain.User, error)
}
