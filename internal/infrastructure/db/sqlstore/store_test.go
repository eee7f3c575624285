package sqlstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, msk)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver:   DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "shifts.db"),
		Location: msk,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CreateAndClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, domain.StatusActive, rec.Status())

	closed, err := s.CloseActiveShift(ctx, 1, at(17, 30))
	require.NoError(t, err)
	require.NotNil(t, closed.EndTime)
	assert.True(t, closed.EndTime.Equal(at(17, 30)))

	d, ok := closed.Duration()
	assert.True(t, ok)
	assert.Equal(t, 8*time.Hour+30*time.Minute, d)
}

func TestStore_CreateConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)

	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 5))
	assert.ErrorIs(t, err, domain.ErrShiftConflict)
}

func TestStore_CloseWithoutActive(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CloseActiveShift(context.Background(), 99, at(10, 0))
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
}

func TestStore_CloseClampsEndBeforeStart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 1, "Anna", at(10, 0))
	require.NoError(t, err)

	rec, err := s.CloseActiveShift(ctx, 1, at(9, 0))
	require.NoError(t, err)
	assert.True(t, rec.EndTime.Equal(rec.StartTime))
}

func TestStore_UniqueIndexBacksInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)

	// bypass the application check and hit the index directly
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO shifts (user_id, user_name, start_time) VALUES (?, ?, ?)`,
		1, "Anna", "2024-03-01 10:00:00")
	require.Error(t, err)
	assert.True(t, s.dialect.isUnique(err))
}

func TestStore_ListShiftsForUser_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for h := 8; h < 14; h += 2 {
		_, err := s.CreateShift(ctx, 1, "Anna", at(h, 0))
		require.NoError(t, err)
		_, err = s.CloseActiveShift(ctx, 1, at(h+1, 0))
		require.NoError(t, err)
	}
	_, err := s.CreateShift(ctx, 2, "Boris", at(12, 30))
	require.NoError(t, err)

	got, err := s.ListShiftsForUser(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].StartTime.Equal(at(12, 0)))
	assert.True(t, got[1].StartTime.Equal(at(10, 0)))
	for _, r := range got {
		assert.Equal(t, int64(1), r.UserID)
	}
}

func TestStore_ListAllShifts_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	closed, err := s.CloseActiveShift(ctx, 1, at(11, 15))
	require.NoError(t, err)
	active, err := s.CreateShift(ctx, 2, "Boris", at(10, 0))
	require.NoError(t, err)

	got, err := s.ListAllShifts(ctx)
	require.NoError(t, err)

	want := []domain.ShiftRecord{*active, *closed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListAllShifts mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AggregateByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateShift(ctx, 2, "Boris", at(8, 0))
	require.NoError(t, err)
	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	_, err = s.CloseActiveShift(ctx, 1, at(17, 30))
	require.NoError(t, err)
	_, err = s.CreateShift(ctx, 1, "Anna K.", at(18, 0))
	require.NoError(t, err)

	got, err := s.AggregateByUser(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.UserAggregate{UserID: 2, UserName: "Boris", ShiftCount: 1, ActiveCount: 1}, got[0])
	assert.Equal(t, int64(1), got[1].UserID)
	assert.Equal(t, "Anna K.", got[1].UserName)
	assert.Equal(t, 2, got[1].ShiftCount)
	assert.Equal(t, 1, got[1].ActiveCount)
	assert.InDelta(t, 8.5, got[1].TotalHours, 1e-9)
}

func TestStore_ConcurrentCreateSameUser(t *testing.T) {
	s := newTestStore(t)

	const n = 12
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateShift(context.Background(), 5, "Vera", at(9, 0))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrShiftConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestStore_ConcurrentCreateDifferentUsers(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for uid := int64(1); uid <= 4; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := s.CreateShift(context.Background(), uid, "user", at(9, 0))
			assert.NoError(t, err)
		}(uid)
	}
	wg.Wait()

	all, err := s.ListAllShifts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shifts.db")
	cfg := Config{Driver: DriverSQLite, DSN: path, Location: msk}

	s, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.CreateShift(context.Background(), 1, "Anna", at(9, 0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateShift(context.Background(), 1, "Anna", at(9, 30))
	assert.ErrorIs(t, err, domain.ErrShiftConflict, "active shift must survive a restart")
}

func TestStore_StorageErrorAfterClose(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListAllShifts(context.Background())
	var se *domain.StorageError
	assert.True(t, errors.As(err, &se), "expected StorageError, got %v", err)
}

func TestDialect_Rebind(t *testing.T) {
	q := `UPDATE shifts SET end_time = ? WHERE id = ? AND end_time IS NULL`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `UPDATE shifts SET end_time = $1 WHERE id = $2 AND end_time IS NULL`, postgresDialect.rebind(q))
}

func TestDialectFor(t *testing.T) {
	d, err := dialectFor("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, d.name)

	d, err = dialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, d.name)

	_, err = dialectFor("oracle")
	assert.Error(t, err)
}

// TestStore_Postgres runs a smoke test against a real server when
// POSTGRES_TEST_DSN is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn, Location: msk}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	_, err = s.db.ExecContext(ctx, `TRUNCATE shifts RESTART IDENTITY`)
	require.NoError(t, err)

	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 0))
	require.NoError(t, err)
	_, err = s.CreateShift(ctx, 1, "Anna", at(9, 1))
	assert.ErrorIs(t, err, domain.ErrShiftConflict)

	rec, err := s.CloseActiveShift(ctx, 1, at(17, 30))
	require.NoError(t, err)
	d, _ := rec.Duration()
	assert.Equal(t, 8*time.Hour+30*time.Minute, d)
}
