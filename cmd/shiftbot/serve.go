package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/workshift/shift-tracker/internal/api"
	"github.com/workshift/shift-tracker/internal/api/handler"
	"github.com/workshift/shift-tracker/internal/bot"
	"github.com/workshift/shift-tracker/internal/core/service"
	redisdb "github.com/workshift/shift-tracker/internal/infrastructure/db/redis"
	"github.com/workshift/shift-tracker/internal/infrastructure/queue"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the HTTP API",
	Long: `Starts the HTTP API on PORT and, when TELEGRAM_BOT_TOKEN is set, polls
Telegram for bot commands. Stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.HTTP.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to serve the API")
	}

	admins := service.NewStaticAdminPolicy(a.cfg.Telegram.AdminIDs...)
	checks := map[string]handler.PingFunc{"store": a.store.Ping}

	var dedup bot.Deduper
	redisCfg := redisdb.Config{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB}
	if redisCfg.Enabled() {
		client, err := redisdb.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		dedup = redisdb.NewUpdateDeduper(client, redisdb.DefaultDedupTTL)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)

	botDone := make(chan struct{})
	if token := a.cfg.Telegram.Token; token != "" {
		botAPI, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return err
		}
		a.log.Info().Str("bot", botAPI.Self.UserName).Msg("telegram bot authorised")

		h := bot.NewHandler(a.service, admins, botAPI, a.clock.Location(), a.log)
		dispatcher := queue.NewDispatcher(a.cfg.Telegram.Workers, h, a.log.With().Str("component", "dispatcher").Logger())
		poller := bot.NewPoller(botAPI, dedup, dispatcher, a.cfg.Telegram.PollTimeout, a.log)
		go func() {
			defer close(botDone)
			errCh <- runBot(runCtx, poller, dispatcher)
		}()
	} else {
		close(botDone)
		a.log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, bot and /auth/telegram disabled")
	}

	deps := api.Dependencies{
		Shifts:    a.service,
		Admins:    admins,
		JWTSecret: a.cfg.HTTP.JWTSecret,
		Checks:    checks,
		Logger:    a.log,
	}
	if a.cfg.Telegram.Token != "" {
		deps.Auth = service.NewAuthService(a.cfg.Telegram.Token, a.cfg.HTTP.JWTSecret, a.cfg.HTTP.TokenTTL, admins)
	}
	e := api.NewRouter(deps)
	go func() {
		a.log.Info().Str("port", a.cfg.HTTP.Port).Msg("http server listening")
		if err := e.Start(":" + a.cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			a.log.Error().Err(runErr).Msg("component stopped")
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
	}
	<-botDone
	a.log.Info().Msg("stopped")
	return runErr
}

// runBot polls until ctx is done or the update feed ends. Intake stops
// before the queue is closed, and every update already accepted is handled
// before runBot returns.
func runBot(ctx context.Context, poller *bot.Poller, dispatcher *queue.Dispatcher) error {
	dispatcher.Start()
	err := poller.Run(ctx)
	dispatcher.Stop()
	dispatcher.Wait()
	return err
}
