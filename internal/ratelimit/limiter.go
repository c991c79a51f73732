package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyCheckout     = "narzo:ratelimit:checkout:%s"
	keyDownload     = "narzo:ratelimit:download:%s"
	keyCallbackLock = "narzo:lock:callback:%s"

	EndpointCheckout = "checkout"
	EndpointDownload = "download"
)

type Params struct {
	fx.In

	Lc      fx.Lifecycle `optional:"true"`
	Cfg     config.Config
	Log     *zap.Logger
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// Limiter throttles public endpoints per client IP and serialises webhook
// deliveries per merchant reference. A disabled limiter admits everything.
type Limiter struct {
	enabled bool
	log     *zap.Logger
	metrics *metrics.Metrics

	bucket *TokenBucket
	locker *Locker
	memory *memoryWindow

	checkout policy
	download policy
	lockTTL  time.Duration
}

func New(p Params) (*Limiter, error) {
	limitCfg := p.Cfg.RateLimit
	log := p.Log.Named("ratelimit")
	if !limitCfg.Enabled {
		return &Limiter{log: log}, nil
	}

	checkout := policy{rate: limitCfg.CheckoutRate, burst: limitCfg.CheckoutBurst}
	if err := checkout.validate(EndpointCheckout); err != nil {
		return nil, err
	}
	download := policy{rate: limitCfg.DownloadRate, burst: limitCfg.DownloadBurst}
	if err := download.validate(EndpointDownload); err != nil {
		return nil, err
	}
	lockTTL := limitCfg.CallbackLock
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	l := &Limiter{
		enabled:  true,
		log:      log,
		metrics:  p.Metrics,
		checkout: checkout,
		download: download,
		lockTTL:  lockTTL,
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		now := time.Now
		if p.Clock != nil {
			now = p.Clock.Now
		}
		l.memory = newMemoryWindow(now)
		log.Info("rate limiting in process memory")
		return l, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	l.bucket = NewTokenBucket(client)
	l.locker = NewLocker(client)

	if p.Lc != nil {
		p.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("redis unreachable, rate limiting fails open", zap.String("addr", addr), zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}
	log.Info("rate limiting via redis", zap.String("addr", addr))
	return l, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *Limiter) AllowCheckout(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	return l.allow(ctx, EndpointCheckout, fmt.Sprintf(keyCheckout, strings.TrimSpace(clientIP)), l.checkout)
}

func (l *Limiter) AllowDownload(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	return l.allow(ctx, EndpointDownload, fmt.Sprintf(keyDownload, strings.TrimSpace(clientIP)), l.download)
}

func (l *Limiter) allow(ctx context.Context, endpoint, key string, p policy) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}

	var (
		res *RateLimitResult
		err error
	)
	if l.memory != nil {
		res = l.memory.allow(key, p)
	} else {
		res, err = l.bucket.Allow(ctx, key, p)
	}
	if err != nil {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "error")
		return res, err
	}
	if res.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	} else {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "limit")
	}
	return res, nil
}

// TryLockCallback claims the callback lock for a merchant reference. The
// returned token must be passed to ReleaseCallback.
func (l *Limiter) TryLockCallback(ctx context.Context, merchantRef string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyCallbackLock, strings.TrimSpace(merchantRef))
	if l.memory != nil {
		token := uuid.NewString()
		return token, l.memory.tryLock(key, token, l.lockTTL), nil
	}
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

// ReleaseCallback frees the lock taken by TryLockCallback. ErrLockLost means
// the lock had expired, so another delivery may have run concurrently.
func (l *Limiter) ReleaseCallback(ctx context.Context, merchantRef, token string) error {
	if !l.Enabled() || token == "" {
		return nil
	}
	key := fmt.Sprintf(keyCallbackLock, strings.TrimSpace(merchantRef))
	if l.memory != nil {
		if !l.memory.release(key, token) {
			return ErrLockLost
		}
		return nil
	}
	return l.locker.Release(ctx, key, token)
}
