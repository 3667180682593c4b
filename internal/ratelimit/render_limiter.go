package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/peoplehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyRenderOrg = "peoplehub:render:org:%s"

// A stored generation writes to object storage and the database on top of the
// conversion, so it draws down the bucket faster than a preview.
const (
	CostPreview  = 1
	CostGenerate = 2
)

// RenderLimiter throttles letter generation and preview per org.
type RenderLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

func NewRenderLimiter(p Params) *RenderLimiter {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return &RenderLimiter{}
	}
	if p.Client == nil {
		p.Log.Warn("render rate limit enabled without redis; limiter disabled")
		return &RenderLimiter{}
	}
	if limitCfg.RenderOrgRate <= 0 || limitCfg.RenderOrgBurst <= 0 {
		p.Log.Warn("render rate limit must be positive; limiter disabled",
			zap.Float64("rate", limitCfg.RenderOrgRate),
			zap.Int("burst", limitCfg.RenderOrgBurst),
		)
		return &RenderLimiter{}
	}

	return &RenderLimiter{
		enabled: true,
		bucket:  NewTokenBucket(p.Client),
		rate:    limitCfg.RenderOrgRate,
		burst:   limitCfg.RenderOrgBurst,
	}
}

func (l *RenderLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowOrg always allows when the limiter is disabled.
func (l *RenderLimiter) AllowOrg(ctx context.Context, orgID string, cost int) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	if cost > l.burst {
		cost = l.burst
	}
	return l.bucket.Take(ctx, fmt.Sprintf(keyRenderOrg, strings.TrimSpace(orgID)), l.rate, l.burst, cost)
}
