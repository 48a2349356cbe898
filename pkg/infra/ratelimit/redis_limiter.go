package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/astralhq/chatgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Limiter is the distributed rate-limit counter consumed by the admission
// controller, keyed by (client IP, category).
//
//go:generate mockery --name=Limiter --dir=. --output=../../mocks --filename=rate_limiter_mock.go --case=underscore --with-expecter
type Limiter interface {
	Check(ctx context.Context, ip, category string) (types.RateLimitResult, error)
}

type redisLimiter struct {
	redis        *redis.Client
	limit        int
	window       time.Duration
	timeProvider func() time.Time
	uuidProvider func() uuid.UUID
}

type Opts struct {
	TimeProvider func() time.Time
	UUIDProvider func() uuid.UUID
}

// NewRedisLimiter builds a sliding-window limiter over a redis sorted set.
// A request only consumes budget when it is allowed; denied requests never
// shrink the window further.
func NewRedisLimiter(redisClient *redis.Client, limit int, window time.Duration, opts *Opts) Limiter {
	timeProvider := time.Now
	uuidProvider := uuid.New
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if opts != nil && opts.UUIDProvider != nil {
		uuidProvider = opts.UUIDProvider
	}

	return &redisLimiter{
		redis:        redisClient,
		limit:        limit,
		window:       window,
		timeProvider: timeProvider,
		uuidProvider: uuidProvider,
	}
}

func (r *redisLimiter) Check(ctx context.Context, ip, category string) (types.RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", category, ip)

	now := r.timeProvider()
	windowStart := now.Add(-r.window).Unix()
	resetAt := now.Add(r.window)

	count, err := r.redis.ZCount(ctx, key,
		strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(now.Unix(), 10)).Result()
	if err != nil {
		return types.RateLimitResult{}, fmt.Errorf("failed to count rate limit window: %w", err)
	}

	result := types.RateLimitResult{
		Allowed:   count < int64(r.limit),
		Limit:     r.limit,
		Remaining: r.limit - int(count),
		ResetAt:   resetAt,
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	if !result.Allowed {
		return result, nil
	}

	member := fmt.Sprintf("%d:%s", now.Unix(), r.uuidProvider().String())
	pipe := r.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.Unix()), Member: member})
	pipe.Expire(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.RateLimitResult{}, fmt.Errorf("failed to record rate limit hit: %w", err)
	}

	result.Remaining--
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}
