package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Tokens are stored in thousandths so fractional refill survives the integer
// reply conversion. The script answers {allowed, remaining_milli, retry_ms}.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2]) * 1000
local cost = tonumber(ARGV[3]) * 1000
local ttl = tonumber(ARGV[4])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed = 0
local retry = 0
if tokens >= cost then
  allowed = 1
  tokens = tokens - cost
else
  retry = math.ceil((cost - tokens) / rate)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, math.floor(tokens), retry}
`

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
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

// Take removes cost tokens from key's bucket, refilled at rate tokens per
// second up to burst.
func (t *TokenBucket) Take(ctx context.Context, key string, rate float64, burst, cost int) (*RateLimitResult, error) {
	switch {
	case t == nil || t.client == nil:
		return nil, errors.New("rate limiter not configured")
	case key == "":
		return nil, errors.New("rate limiter key is empty")
	case rate <= 0 || burst <= 0:
		return nil, errors.New("rate limiter rate and burst must be positive")
	case cost <= 0 || cost > burst:
		return nil, errors.New("rate limiter cost must be between 1 and burst")
	}

	// rate is passed per millisecond in milli-tokens, which is the same number
	res, err := t.script.Run(ctx, t.client, []string{key},
		rate,
		burst,
		cost,
		bucketTTL(rate, burst).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 3 {
		return nil, errors.New("invalid rate limit script response")
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Limit:      burst,
		Remaining:  int(res[1] / 1000),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Ceil(float64(burst) / rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}
