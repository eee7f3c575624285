// Package bot is the Telegram front end of the shift tracker.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
	"github.com/workshift/shift-tracker/internal/metrics"
)

// HistorySize is how many shifts /my_shifts lists.
const HistorySize = 10

// Sender delivers replies. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler turns bot commands into shift service calls.
type Handler struct {
	service ports.ShiftService
	admins  ports.AdminPolicy
	sender  Sender
	loc     *time.Location
	logger  zerolog.Logger
}

func NewHandler(service ports.ShiftService, admins ports.AdminPolicy, sender Sender, loc *time.Location, logger zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		service: service,
		admins:  admins,
		sender:  sender,
		loc:     loc,
		logger:  logger.With().Str("component", "bot").Logger(),
	}
}

// HandleUpdate answers one command. Non-command messages are ignored.
// A failing service call is answered with a generic apology and returned.
func (h *Handler) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	msg := u.Message
	if msg == nil || msg.From == nil || !msg.IsCommand() {
		return nil
	}

	chatID := msg.From.ID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	cmd := msg.Command()

	var (
		reply tgbotapi.Chattable
		err   error
	)
	switch cmd {
	case "start", "help":
		reply = tgbotapi.NewMessage(chatID, helpText(h.loc, h.isAdmin(msg.From.ID)))
	case "start_shift":
		reply, err = h.startShift(ctx, chatID, msg.From)
	case "end_shift":
		reply, err = h.endShift(ctx, chatID, msg.From.ID)
	case "my_shifts":
		reply, err = h.myShifts(ctx, chatID, msg.From.ID)
	case "export":
		reply, err = h.export(ctx, chatID, msg.From.ID)
	case "stats":
		reply, err = h.stats(ctx, chatID, msg.From.ID)
	default:
		metrics.BotUpdatesTotal.WithLabelValues("other").Inc()
		return nil
	}
	metrics.BotUpdatesTotal.WithLabelValues(cmd).Inc()

	if err != nil {
		h.logger.Error().Err(err).
			Int64("user_id", msg.From.ID).
			Str("command", cmd).
			Int("update_id", u.UpdateID).
			Msg("command failed")
		reply = tgbotapi.NewMessage(chatID, msgFailure)
	}

	if _, sendErr := h.sender.Send(reply); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send %s reply: %w", cmd, sendErr))
	}
	return err
}

func (h *Handler) isAdmin(userID int64) bool {
	return h.admins != nil && h.admins.IsAdmin(userID)
}

func (h *Handler) startShift(ctx context.Context, chatID int64, from *tgbotapi.User) (tgbotapi.Chattable, error) {
	rec, err := h.service.StartShift(ctx, from.ID, fullName(from))
	if errors.Is(err, domain.ErrAlreadyActive) {
		return tgbotapi.NewMessage(chatID, msgAlreadyActive), nil
	}
	if err != nil {
		return nil, err
	}
	return tgbotapi.NewMessage(chatID, startedText(rec, h.loc)), nil
}

func (h *Handler) endShift(ctx context.Context, chatID, userID int64) (tgbotapi.Chattable, error) {
	res, err := h.service.EndShift(ctx, userID)
	if errors.Is(err, domain.ErrNoActiveShift) {
		return tgbotapi.NewMessage(chatID, msgNoActiveShift), nil
	}
	if err != nil {
		return nil, err
	}
	return tgbotapi.NewMessage(chatID, endedText(res, h.loc)), nil
}

func (h *Handler) myShifts(ctx context.Context, chatID, userID int64) (tgbotapi.Chattable, error) {
	entries, err := h.service.History(ctx, userID, HistorySize)
	if err != nil {
		return nil, err
	}
	return tgbotapi.NewMessage(chatID, historyText(entries, h.loc)), nil
}

func (h *Handler) export(ctx context.Context, chatID, userID int64) (tgbotapi.Chattable, error) {
	if !h.isAdmin(userID) {
		return tgbotapi.NewMessage(chatID, msgAccessDenied), nil
	}

	rep, err := h.service.Export(ctx)
	if errors.Is(err, domain.ErrNothingToExport) {
		return tgbotapi.NewMessage(chatID, msgNoData), nil
	}
	if err != nil {
		return nil, err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: rep.Filename, Bytes: rep.Content})
	doc.Caption = exportCaption(rep.Rows)
	return doc, nil
}

func (h *Handler) stats(ctx context.Context, chatID, userID int64) (tgbotapi.Chattable, error) {
	if !h.isAdmin(userID) {
		return tgbotapi.NewMessage(chatID, msgAccessDenied), nil
	}

	stats, err := h.service.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	out := tgbotapi.NewMessage(chatID, statsText(stats))
	if len(stats) > 0 {
		out.ParseMode = tgbotapi.ModeHTML
	}
	return out, nil
}

// fullName mirrors how Telegram clients display a user.
func fullName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
