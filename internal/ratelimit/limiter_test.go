package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMemoryLimiter(t *testing.T) (*Limiter, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	l, err := New(Params{
		Cfg: config.Config{RateLimit: config.RateLimitConfig{
			Enabled:       true,
			CheckoutRate:  0.5,
			CheckoutBurst: 2,
			DownloadRate:  1,
			DownloadBurst: 3,
			CallbackLock:  10 * time.Second,
		}},
		Log:   zaptest.NewLogger(t),
		Clock: fake,
	})
	require.NoError(t, err)
	return l, fake
}

func TestDisabledLimiterAdmitsEverything(t *testing.T) {
	l, err := New(Params{Cfg: config.Config{}, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.False(t, l.Enabled())

	for i := 0; i < 100; i++ {
		res, err := l.AllowCheckout(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	token, ok, err := l.TryLockCallback(context.Background(), "NRZ-1-AAAAAA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.ReleaseCallback(context.Background(), "NRZ-1-AAAAAA", token))
}

func TestMemoryWindowLimitsPerClient(t *testing.T) {
	l, fake := newMemoryLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.AllowCheckout(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.AllowCheckout(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 4*time.Second, res.RetryAfter)

	other, err := l.AllowCheckout(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	download, err := l.AllowDownload(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, download.Allowed, "endpoints are limited independently")

	fake.Advance(4 * time.Second)
	res, err = l.AllowCheckout(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCallbackLockExcludesConcurrentHolders(t *testing.T) {
	l, fake := newMemoryLimiter(t)
	ctx := context.Background()
	ref := "NRZ-1735689600000-ABC123"

	token, ok, err := l.TryLockCallback(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLockCallback(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, l.ReleaseCallback(ctx, ref, "someone-else"), ErrLockLost)
	_, ok, _ = l.TryLockCallback(ctx, ref)
	assert.False(t, ok, "foreign token must not release the lock")

	require.NoError(t, l.ReleaseCallback(ctx, ref, token))
	second, ok, err := l.TryLockCallback(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	fake.Advance(11 * time.Second)
	_, ok, _ = l.TryLockCallback(ctx, ref)
	assert.True(t, ok, "expired lock is reclaimable")
	assert.ErrorIs(t, l.ReleaseCallback(ctx, ref, second), ErrLockLost)
}

func TestNewRejectsNonPositiveRates(t *testing.T) {
	_, err := New(Params{
		Cfg: config.Config{RateLimit: config.RateLimitConfig{Enabled: true, CheckoutRate: 0, CheckoutBurst: 1, DownloadRate: 1, DownloadBurst: 1}},
		Log: zaptest.NewLogger(t),
	})
	assert.Error(t, err)
}

func TestPolicyTiming(t *testing.T) {
	p := policy{rate: 0.5, burst: 2}
	assert.Equal(t, 4*time.Second, p.refillTime())
	assert.Equal(t, time.Second, policy{rate: 10, burst: 2}.refillTime())
	assert.Equal(t, time.Second, p.wait(0.5))
	assert.Zero(t, p.wait(1))
}

func TestParseBucketReply(t *testing.T) {
	allowed, tokens, ts, err := parseBucketReply([]any{int64(1), "2.5", int64(1714557600000)})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.InDelta(t, 2.5, tokens, 1e-9)
	assert.Equal(t, int64(1714557600000), ts)

	_, _, _, err = parseBucketReply([]any{int64(0), 0.3, int64(1)})
	assert.Error(t, err)
	_, _, _, err = parseBucketReply([]any{int64(0)})
	assert.Error(t, err)
}

func TestNilTokenBucketIsNotConfigured(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", policy{rate: 1, burst: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
