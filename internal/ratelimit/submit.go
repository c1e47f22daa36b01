package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lpt/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keySubmitUser = "lpt:submit:user:%s"

var ErrRedisAddrRequired = errors.New("rate limit redis addr is required")

// SubmitLimiter throttles chat submissions per user. It is independent of
// the daily token and message quota.
type SubmitLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

func NewSubmitLimiter(p Params) (*SubmitLimiter, error) {
	cfg := p.Config.RateLimit
	if !cfg.Enabled {
		return &SubmitLimiter{}, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, ErrRedisAddrRequired
	}
	if cfg.SubmitRate <= 0 || cfg.SubmitBurst <= 0 {
		return nil, fmt.Errorf("%w: rate=%v burst=%d", ErrInvalidRate, cfg.SubmitRate, cfg.SubmitBurst)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	log := p.Log.Named("ratelimit")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// requests fail with 503 until redis is reachable
				log.Warn("redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	log.Info("submit throttle enabled",
		zap.Float64("rate_per_second", cfg.SubmitRate),
		zap.Int("burst", cfg.SubmitBurst),
	)
	return NewSubmitLimiterWithClient(client, cfg.SubmitRate, cfg.SubmitBurst), nil
}

func NewSubmitLimiterWithClient(client redis.Scripter, rate float64, burst int) *SubmitLimiter {
	return &SubmitLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    rate,
		burst:   burst,
	}
}

func (l *SubmitLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowUser always allows when the limiter is disabled.
func (l *SubmitLimiter) AllowUser(ctx context.Context, userID snowflake.ID) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keySubmitUser, userID.String()), l.rate, l.burst)
}
