package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/core/ports"
	"github.com/workshift/shift-tracker/internal/core/service"
	"github.com/workshift/shift-tracker/internal/infrastructure/config"
	"github.com/workshift/shift-tracker/internal/infrastructure/db/mongo"
	"github.com/workshift/shift-tracker/internal/infrastructure/db/sqlstore"
	"github.com/workshift/shift-tracker/internal/infrastructure/report"
	"github.com/workshift/shift-tracker/internal/metrics"
	"github.com/workshift/shift-tracker/internal/pkg/clock"
	"github.com/workshift/shift-tracker/pkg/logger"
)

var (
	_ ports.ShiftStore = (*sqlstore.Store)(nil)
	_ ports.ShiftStore = (*mongo.ShiftStore)(nil)
)

// app holds what every command needs: config, logger, store and service.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	clock   *clock.System
	store   ports.ShiftStore
	service ports.ShiftService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Development(),
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}

	clk, err := cfg.Clock()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, clk.Location(), log)
	if err != nil {
		return nil, err
	}

	svc := service.NewShiftService(st, clk, report.NewXLSXBuilder(), log.With().Str("component", "shifts").Logger())
	return &app{
		cfg:     cfg,
		log:     log,
		clock:   clk,
		store:   st,
		service: metrics.Instrument(svc),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, loc *time.Location, log zerolog.Logger) (ports.ShiftStore, error) {
	switch cfg.Store.Driver {
	case "mongo":
		return mongo.NewShiftStore(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}, loc, log)
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		return sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN, Location: loc}, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
	_ = logger.Close()
}
