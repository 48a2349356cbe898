package abuse

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const scoreKey = "abuse:score:%s"

// Tracker is the cross-request abuse score owned by redis. Scores are
// incremented on bot and rate-limit denials and decay via TTL.
//
//go:generate mockery --name=Tracker --dir=. --output=../../mocks --filename=abuse_tracker_mock.go --case=underscore --with-expecter
type Tracker interface {
	Increment(ctx context.Context, ip string, weight int) error
	IsBlocked(ctx context.Context, ip string) (bool, error)
}

type tracker struct {
	redis          *redis.Client
	blockThreshold int
	ttl            time.Duration
}

func NewTracker(redisClient *redis.Client, blockThreshold int, ttl time.Duration) Tracker {
	return &tracker{
		redis:          redisClient,
		blockThreshold: blockThreshold,
		ttl:            ttl,
	}
}

func (t *tracker) Increment(ctx context.Context, ip string, weight int) error {
	key := fmt.Sprintf(scoreKey, ip)

	pipe := t.redis.TxPipeline()
	pipe.IncrBy(ctx, key, int64(weight))
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment abuse score: %w", err)
	}
	return nil
}

func (t *tracker) IsBlocked(ctx context.Context, ip string) (bool, error) {
	score, err := t.redis.Get(ctx, fmt.Sprintf(scoreKey, ip)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read abuse score: %w", err)
	}
	return score >= t.blockThreshold, nil
}
