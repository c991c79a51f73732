package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var ErrNotConfigured = errors.New("rate_limiter_not_configured")

// Refills continuously at ARGV[1] tokens/sec up to ARGV[2]; the bucket hash
// expires after ARGV[3] ms of inactivity. Replies {allowed, tokens, ts_ms}.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = (clock[1] * 1000) + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - last)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`

// policy is a per-endpoint allowance: burst requests up front, refilled at
// rate per second.
type policy struct {
	rate  float64
	burst int
}

func (p policy) validate(name string) error {
	if p.rate <= 0 || p.burst <= 0 {
		return fmt.Errorf("%s rate limit must be positive", name)
	}
	return nil
}

// refillTime is how long an empty bucket takes to fill back to burst.
func (p policy) refillTime() time.Duration {
	if p.rate <= 0 || p.burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(p.burst)/p.rate))
	return time.Duration(seconds) * time.Second
}

// wait is the time until one token is available again.
func (p policy) wait(tokens float64) time.Duration {
	missing := 1 - tokens
	if missing <= 0 || p.rate <= 0 {
		return 0
	}
	return time.Duration(missing / p.rate * float64(time.Second))
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// TokenBucket keeps one bucket per key in redis, shared by every replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

func (t *TokenBucket) Allow(ctx context.Context, key string, p policy) (*RateLimitResult, error) {
	if t == nil || t.client == nil {
		return nil, ErrNotConfigured
	}
	if key == "" {
		return nil, errors.New("rate limiter key is empty")
	}
	if err := p.validate("bucket"); err != nil {
		return nil, err
	}

	ttl := 2 * p.refillTime()
	reply, err := t.script.Run(ctx, t.client, []string{key}, p.rate, p.burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, err
	}
	allowed, tokens, ts, err := parseBucketReply(reply)
	if err != nil {
		return nil, err
	}

	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     p.burst,
		Remaining: int(tokens),
		ResetTime: time.UnixMilli(ts),
	}
	if !allowed {
		res.RetryAfter = p.wait(tokens)
		res.ResetTime = res.ResetTime.Add(res.RetryAfter)
	}
	return res, nil
}

func parseBucketReply(reply []any) (allowed bool, tokens float64, ts int64, err error) {
	if len(reply) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit script: unexpected reply length %d", len(reply))
	}
	flag, ok := reply[0].(int64)
	if !ok {
		return false, 0, 0, fmt.Errorf("rate limit script: allowed is %T", reply[0])
	}
	raw, ok := reply[1].(string)
	if !ok {
		return false, 0, 0, fmt.Errorf("rate limit script: tokens is %T", reply[1])
	}
	tokens, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit script: %w", err)
	}
	ts, ok = reply[2].(int64)
	if !ok {
		return false, 0, 0, fmt.Errorf("rate limit script: ts is %T", reply[2])
	}
	return flag == 1, tokens, ts, nil
}
