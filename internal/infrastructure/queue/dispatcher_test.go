package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHandler struct {
	mu    sync.Mutex
	seen  map[int64][]int
	total int
	done  chan struct{}
	want  int
	err   error
}

func newRecordingHandler(want int) *recordingHandler {
	return &recordingHandler{seen: make(map[int64][]int), done: make(chan struct{}), want: want}
}

func (h *recordingHandler) HandleUpdate(_ context.Context, u tgbotapi.Update) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	uid := SenderID(u)
	h.seen[uid] = append(h.seen[uid], u.UpdateID)
	h.total++
	if h.total == h.want {
		close(h.done)
	}
	return h.err
}

func message(updateID int, userID int64) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message:  &tgbotapi.Message{From: &tgbotapi.User{ID: userID}, Text: "/my_shifts"},
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	const perUser = 50
	users := []int64{11, 12, 13, 14, 15}
	h := newRecordingHandler(perUser * len(users))

	ctx := context.Background()
	d := NewDispatcher(3, h, zerolog.Nop())
	d.Start()

	id := 0
	for i := 0; i < perUser; i++ {
		for _, uid := range users {
			id++
			if err := d.Enqueue(ctx, message(id, uid)); err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for updates")
	}
	d.Stop()
	d.Wait()

	for uid, ids := range h.seen {
		if len(ids) != perUser {
			t.Fatalf("user %d: expected %d updates, got %d", uid, perUser, len(ids))
		}
		for i := 1; i < len(ids); i++ {
			if ids[i] < ids[i-1] {
				t.Fatalf("user %d: updates out of order: %v", uid, ids)
			}
		}
	}
}

func TestDispatcher_HandlerErrorsDoNotStopWorker(t *testing.T) {
	h := newRecordingHandler(3)
	h.err = errors.New("boom")

	ctx := context.Background()
	d := NewDispatcher(1, h, zerolog.Nop())
	d.Start()

	for i := 1; i <= 3; i++ {
		_ = d.Enqueue(ctx, message(i, 1))
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stopped after handler error")
	}
	d.Stop()
	d.Wait()
}

type slowHandler struct {
	mu      sync.Mutex
	handled []int
	ctxErrs int
}

func (h *slowHandler) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	time.Sleep(20 * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, u.UpdateID)
	if ctx.Err() != nil {
		h.ctxErrs++
	}
	return nil
}

func TestDispatcher_StopDrainsAcceptedUpdates(t *testing.T) {
	h := &slowHandler{}
	d := NewDispatcher(1, h, zerolog.Nop())
	d.Start()

	for i := 1; i <= 10; i++ {
		if err := d.Enqueue(context.Background(), message(i, 1)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Stop()
	d.Wait()

	if len(h.handled) != 10 {
		t.Fatalf("expected all 10 accepted updates handled, got %d", len(h.handled))
	}
	for i, id := range h.handled {
		if id != i+1 {
			t.Fatalf("updates out of order: %v", h.handled)
		}
	}
	if h.ctxErrs != 0 {
		t.Fatalf("%d updates ran with a cancelled context", h.ctxErrs)
	}
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(2, newRecordingHandler(-1), zerolog.Nop())
	d.Start()
	d.Stop()
	d.Stop()
	d.Wait()

	if err := d.Enqueue(context.Background(), message(1, 1)); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestDispatcher_EnqueueGivesUpOnCancel(t *testing.T) {
	d := NewDispatcher(1, newRecordingHandler(-1), zerolog.Nop())

	// no workers running: fill the buffer so the next send has to block
	for i := 0; i < channelBuffer; i++ {
		d.workers[0] <- message(i, 1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Enqueue(ctx, message(999, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSenderID(t *testing.T) {
	cases := []struct {
		name string
		in   tgbotapi.Update
		want int64
	}{
		{"message", message(1, 42), 42},
		{"callback", tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 7}}}, 7},
		{"no sender", tgbotapi.Update{UpdateID: 3}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SenderID(tc.in); got != tc.want {
				t.Fatalf("SenderID = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingHandler(1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_EnqueueAcceptsWithRoomAfterCancel(t *testing.T) {
	h := newRecordingHandler(1)
	d := NewDispatcher(1, h, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Enqueue(ctx, message(1, 1)); err != nil {
		t.Fatalf("expected the update to be accepted, got %v", err)
	}

	d.Start()
	d.Stop()
	d.Wait()
	if h.total != 1 {
		t.Fatalf("expected 1 handled update, got %d", h.total)
	}
}
