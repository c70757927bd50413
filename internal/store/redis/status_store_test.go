package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/store"
)

func newTestStore(t *testing.T) (*StatusStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewWithClient(client, "wuzzuf:run:", time.Hour)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStatusStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t)
	ctx := context.Background()
	started := time.Unix(1700000000, 0).UTC()
	require.NoError(t, s.Put(ctx, store.RunStatus{
		RunID:     "run-1",
		State:     store.RunRunning,
		StartedAt: started,
		Saved:     4,
	}))

	require.True(t, mr.Exists("wuzzuf:run:run-1"))
	require.Equal(t, time.Hour, mr.TTL("wuzzuf:run:run-1"))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, store.RunRunning, got.State)
	require.Equal(t, int64(4), got.Saved)
	require.True(t, started.Equal(got.StartedAt))
}

func TestStatusStoreMissingRun(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewRequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}
