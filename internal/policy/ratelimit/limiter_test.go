package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLimiterPacesPerHost(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	l, err := New(Config{RPS: 10, Burst: 1, Registerer: reg})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://wuzzuf.net/a"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://wuzzuf.net/b"))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// Other hosts have their own bucket.
	start = time.Now()
	require.NoError(t, l.Wait(ctx, "https://images.example.com/logo.png"))
	require.Less(t, time.Since(start), 50*time.Millisecond)

	require.Equal(t, 1, testutil.CollectAndCount(reg, "crawler_rate_limit_delay_seconds"))
}

func TestLimiterUnlimited(t *testing.T) {
	t.Parallel()

	l, err := New(Config{})
	require.NoError(t, err)
	for range 50 {
		require.NoError(t, l.Wait(context.Background(), "https://wuzzuf.net"))
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	l, err := New(Config{RPS: 0.1, Burst: 1})
	require.NoError(t, err)
	require.NoError(t, l.Wait(context.Background(), "https://wuzzuf.net"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://wuzzuf.net"))
}
