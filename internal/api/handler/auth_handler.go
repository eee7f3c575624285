package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/workshift/shift-tracker/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// TelegramLogin exchanges a signed Telegram login-widget payload for a JWT.
//
// @Summary      Log in with Telegram
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      telegramLoginRequest  true  "Telegram login widget data"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/telegram [post]
func (h *AuthHandler) TelegramLogin(c echo.Context) error {
	var req telegramLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, user, err := h.authService.TelegramLogin(c.Request().Context(), req.fields())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Name: user.Name, Role: user.Role},
	})
}

// fields rebuilds the key/value set Telegram signed. Empty optional fields
// were not part of the signature and are left out.
func (r telegramLoginRequest) fields() map[string]string {
	data := map[string]string{
		"id":        strconv.FormatInt(r.ID, 10),
		"auth_date": strconv.FormatInt(r.AuthDate, 10),
		"hash":      r.Hash,
	}
	for k, v := range map[string]string{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"username":   r.Username,
		"photo_url":  r.PhotoURL,
	} {
		if v != "" {
			data[k] = v
		}
	}
	return data
}
