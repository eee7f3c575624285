package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

const (
	// maxAuthAge bounds how old a Telegram login payload may be.
	maxAuthAge = 24 * time.Hour
	// maxClockSkew is how far in the future auth_date may lie.
	maxClockSkew = time.Minute
)

// AuthService verifies Telegram login-widget payloads and issues API tokens.
type AuthService struct {
	botToken  string
	jwtSecret string
	tokenTTL  time.Duration
	admins    ports.AdminPolicy
	now       func() time.Time
}

func NewAuthService(botToken, jwtSecret string, tokenTTL time.Duration, admins ports.AdminPolicy) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		botToken:  botToken,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		admins:    admins,
		now:       time.Now,
	}
}

// TelegramLogin validates data signed by Telegram and returns a signed JWT
// for the user it describes. Without a bot token nothing can be verified,
// so every payload is rejected.
func (s *AuthService) TelegramLogin(_ context.Context, data map[string]string) (string, *domain.User, error) {
	if s.botToken == "" {
		return "", nil, domain.ErrInvalidTelegramAuth
	}
	for _, field := range []string{"id", "hash", "auth_date"} {
		if data[field] == "" {
			return "", nil, domain.ErrInvalidTelegramAuth
		}
	}

	authDate, err := strconv.ParseInt(data["auth_date"], 10, 64)
	if err != nil {
		return "", nil, domain.ErrInvalidTelegramAuth
	}
	age := s.now().Sub(time.Unix(authDate, 0))
	if age > maxAuthAge || age < -maxClockSkew {
		return "", nil, domain.ErrInvalidTelegramAuth
	}

	if !hmac.Equal([]byte(data["hash"]), []byte(s.sign(data))) {
		return "", nil, domain.ErrInvalidTelegramAuth
	}

	id, err := strconv.ParseInt(data["id"], 10, 64)
	if err != nil {
		return "", nil, domain.ErrInvalidTelegramAuth
	}

	user := &domain.User{
		ID:   id,
		Name: displayName(data["first_name"], data["last_name"], data["username"]),
		Role: domain.RoleEmployee,
	}
	if s.admins != nil && s.admins.IsAdmin(id) {
		user.Role = domain.RoleAdmin
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// sign computes the hex HMAC-SHA256 of the data-check-string, keyed with
// SHA256(bot token), as described by the Telegram login widget.
func (s *AuthService) sign(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if k != "hash" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + data[k]
	}

	secret := sha256.Sum256([]byte(s.botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"name":    user.Name,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// displayName builds "First Last", falling back to the username.
func displayName(first, last, username string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		name = username
	}
	return name
}
