package api

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestGetLimiterSharedAcrossConcurrentRequests(t *testing.T) {
	l := NewIPRateLimiter(60, zap.NewNop().Sugar())

	const workers = 8
	got := make([]*rate.Limiter, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = l.getLimiter("1.2.3.4")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Same(t, got[0], got[i], "every request for one IP must hit the same limiter")
	}
}

func TestGetLimiterIsolatesIPs(t *testing.T) {
	l := NewIPRateLimiter(60, zap.NewNop().Sugar())
	require.NotSame(t, l.getLimiter("10.0.0.1"), l.getLimiter("10.0.0.2"))
}

func TestLimiterBurstThenDeny(t *testing.T) {
	l := NewIPRateLimiter(1, zap.NewNop().Sugar()) // ~0.016 rps, so only the burst admits
	lim := l.getLimiter("10.0.0.3")
	for i := 0; i < 5; i++ {
		require.True(t, lim.Allow(), "request %d within burst", i)
	}
	require.False(t, lim.Allow(), "burst exhausted")
}
