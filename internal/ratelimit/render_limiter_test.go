package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRenderLimiterDisabledAllows(t *testing.T) {
	limiter := NewRenderLimiter(Params{Cfg: config.Config{}, Log: zap.NewNop()})
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowOrg(context.Background(), "1", CostGenerate)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRenderLimiterWithoutRedisStaysDisabled(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, RenderOrgRate: 1, RenderOrgBurst: 2}}
	limiter := NewRenderLimiter(Params{Cfg: cfg, Log: zap.NewNop()})
	assert.False(t, limiter.Enabled())
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 40*time.Second, bucketTTL(0.5, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 0))
}

func TestTakeRejectsBadArguments(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Take(context.Background(), "k", 1, 2, 1)
	assert.Error(t, err)

	bucket = &TokenBucket{client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})}
	_, err = bucket.Take(context.Background(), "k", 1, 2, 3)
	assert.ErrorContains(t, err, "cost")
	_, err = bucket.Take(context.Background(), "", 1, 2, 1)
	assert.ErrorContains(t, err, "key")
}
