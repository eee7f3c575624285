package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/workshift/shift-tracker/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	// handleTimeout bounds one update, shutdown included.
	handleTimeout = 30 * time.Second
)

// ErrStopped is returned by Enqueue once Stop has been called.
var ErrStopped = errors.New("dispatcher stopped")

// UpdateHandler processes one bot update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Dispatcher routes bot updates to a fixed set of workers sharded by sender
// id, so one user's commands are handled in order while different users run
// in parallel. Updates accepted by Enqueue are always handled: Stop closes
// the queues and the workers drain them before exiting.
type Dispatcher struct {
	workers []chan tgbotapi.Update
	handler UpdateHandler
	log     zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler UpdateHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan tgbotapi.Update, numWorkers),
		handler: handler,
		log:     log,
		timeout: handleTimeout,
	}
	for i := range d.workers {
		d.workers[i] = make(chan tgbotapi.Update, channelBuffer)
	}
	return d
}

// Start launches the workers. They run until Stop; Wait blocks until all of
// them have drained their queues and returned.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Stop closes the queues. Call it after the producer has stopped; further
// Enqueue calls return ErrStopped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands the update to the worker owning its sender. It blocks while
// that worker's buffer is full and gives up when ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, update tgbotapi.Update) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	i := d.shardIndex(SenderID(update))
	// an update that fits is accepted even if ctx is already done
	select {
	case d.workers[i] <- update:
		d.reportDepth(i)
		return nil
	default:
	}
	select {
	case d.workers[i] <- update:
		d.reportDepth(i)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) shardIndex(userID int64) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(len(d.workers)))
}

// SenderID returns the Telegram user behind an update, falling back to the
// update id for updates without a sender.
func SenderID(u tgbotapi.Update) int64 {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.EditedMessage != nil && u.EditedMessage.From != nil:
		return u.EditedMessage.From.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	default:
		return int64(u.UpdateID)
	}
}

func (d *Dispatcher) reportDepth(i int) {
	metrics.BotQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
}

func (d *Dispatcher) runWorker(id int, ch <-chan tgbotapi.Update) {
	defer d.wg.Done()
	for update := range ch {
		d.reportDepth(id)
		d.handle(id, update)
	}
}

// handle runs one update under its own deadline, detached from shutdown, so
// a store transaction already under way is not cut off halfway.
func (d *Dispatcher) handle(id int, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.handler.HandleUpdate(ctx, update); err != nil {
		d.log.Error().Err(err).
			Int("update_id", update.UpdateID).
			Int64("user_id", SenderID(update)).
			Int("worker_id", id).
			Msg("update processing failed")
	}
}
