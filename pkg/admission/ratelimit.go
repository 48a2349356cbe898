package admission

import (
	"context"
	"net/http"

	"github.com/astralhq/chatgate/pkg/infra/ratelimit"
	"github.com/astralhq/chatgate/pkg/types"
)

const rateLimitedMessage = "You're sending messages too quickly. Take a breath and try again in a moment."

type rateLimitStage struct {
	limiter ratelimit.Limiter
	scorer  *asyncScorer
}

// NewRateLimitStage runs last among the admission checks so blocked and
// maintenance traffic never consumes limiter budget. Denials carry the
// limiter state for the response headers and charge a small abuse weight.
func NewRateLimitStage(limiter ratelimit.Limiter, scorer *asyncScorer) Stage {
	return &rateLimitStage{limiter: limiter, scorer: scorer}
}

func (s *rateLimitStage) Name() string {
	return "rate_limit"
}

func (s *rateLimitStage) Evaluate(ctx context.Context, meta *RequestMeta) (types.Decision, error) {
	result, err := s.limiter.Check(ctx, meta.ClientIP, RateLimitCategory)
	if err != nil {
		return types.Continue(), err
	}
	if result.Allowed {
		return types.Continue(), nil
	}

	s.scorer.Record(meta.ClientIP, RateLimitAbuseWeight)

	resultCopy := result
	return types.DenyWith(&types.Deny{
		StatusCode: http.StatusTooManyRequests,
		Provider:   types.ProviderRateLimit,
		Message:    rateLimitedMessage,
		Warning:    types.WarningRateLimited,
		RateLimit:  &resultCopy,
	}), nil
}
