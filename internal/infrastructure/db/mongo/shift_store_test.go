package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, msk)
}

// newTestStore connects to MONGO_TEST_URI using a throwaway database.
func newTestStore(t *testing.T) *ShiftStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	cfg := Config{URI: uri, Database: fmt.Sprintf("shifts_test_%d", time.Now().UnixNano())}
	s, err := NewShiftStore(context.Background(), cfg, msk, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.shifts.Database().Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestShiftStore_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 5))
	assert.ErrorIs(t, err, domain.ErrShiftConflict)

	closed, err := s.CloseActiveShift(ctx, 1, at(17, 30))
	require.NoError(t, err)
	d, ok := closed.Duration()
	require.True(t, ok)
	assert.Equal(t, 8*time.Hour+30*time.Minute, d)

	_, err = s.CloseActiveShift(ctx, 1, at(18, 0))
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)

	second, err := s.CreateShift(ctx, 1, "Anna", at(18, 0))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestShiftStore_ListingAndAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 2, "Boris", at(8, 0))
	require.NoError(t, err)
	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	_, err = s.CloseActiveShift(ctx, 1, at(10, 30))
	require.NoError(t, err)

	all, err := s.ListAllShifts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].UserID)

	mine, err := s.ListShiftsForUser(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Nil(t, mine[0].EndTime)

	aggs, err := s.AggregateByUser(ctx)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, int64(2), aggs[0].UserID)
	assert.InDelta(t, 1.5, aggs[1].TotalHours, 1e-9)
}

func TestShiftStore_ConcurrentCreateSameUser(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateShift(context.Background(), 3, "Vera", at(9, 0)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
