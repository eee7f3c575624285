package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/metrics"
)

// UpdateSource is the long-polling side of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deduper claims update ids so redelivered updates run once.
type Deduper interface {
	Claim(ctx context.Context, updateID int) (bool, error)
	Release(ctx context.Context, updateID int) error
}

const releaseTimeout = 2 * time.Second

// Queue accepts updates for asynchronous handling.
type Queue interface {
	Enqueue(ctx context.Context, update tgbotapi.Update) error
}

// Poller pulls updates from Telegram and feeds them to the queue.
type Poller struct {
	source  UpdateSource
	dedup   Deduper
	queue   Queue
	timeout int
	logger  zerolog.Logger
}

// NewPoller wires a poller. dedup may be nil, in which case every update is
// handled. timeout is the long-poll timeout in seconds.
func NewPoller(source UpdateSource, dedup Deduper, queue Queue, timeout int, logger zerolog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 60
	}
	return &Poller{
		source:  source,
		dedup:   dedup,
		queue:   queue,
		timeout: timeout,
		logger:  logger.With().Str("component", "poller").Logger(),
	}
}

// Run blocks until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout

	updates := p.source.GetUpdatesChan(cfg)
	defer p.source.StopReceivingUpdates()

	p.logger.Info().Int("timeout", p.timeout).Msg("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if !p.claim(ctx, u.UpdateID) {
				continue
			}
			if err := p.queue.Enqueue(ctx, u); err != nil {
				// shutting down: let the redelivered update be handled next run
				p.release(u.UpdateID)
				return nil
			}
		}
	}
}

// claim fails open: if Redis is unreachable the update is still handled.
func (p *Poller) claim(ctx context.Context, updateID int) bool {
	if p.dedup == nil {
		return true
	}
	ok, err := p.dedup.Claim(ctx, updateID)
	if err != nil {
		p.logger.Warn().Err(err).Int("update_id", updateID).Msg("dedup unavailable")
		return true
	}
	if !ok {
		metrics.BotDedupTotal.WithLabelValues("hit").Inc()
		p.logger.Debug().Int("update_id", updateID).Msg("duplicate update skipped")
		return false
	}
	metrics.BotDedupTotal.WithLabelValues("miss").Inc()
	return true
}

func (p *Poller) release(updateID int) {
	if p.dedup == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := p.dedup.Release(ctx, updateID); err != nil {
		p.logger.Warn().Err(err).Int("update_id", updateID).Msg("release dedup claim")
	}
}
