package domain

import "errors"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

var ErrInvalidTelegramAuth = errors.New("invalid telegram auth data")
var ErrForbidden = errors.New("access forbidden")

// User models the authenticated caller as resolved by a transport adapter.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
