// Package admission runs the ordered, short-circuiting gate in front of the
// chat pipeline: maintenance, IP block, bot detection, rate limit. Cheap
// globally-cached checks run first so costlier checks never execute for
// requests that will be rejected anyway.
package admission

import (
	"context"

	"github.com/astralhq/chatgate/pkg/types"
)

// Abuse-score weights recorded on denials.
const (
	BotAbuseWeight       = 10
	RateLimitAbuseWeight = 5
)

// RateLimitCategory keys the limiter for chat generation traffic.
const RateLimitCategory = "ai"

// RequestMeta is what admission needs to know about a request before its
// body is even parsed.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	// BotData is the optional compressed browser-telemetry blob the web
	// client attaches for bot scoring.
	BotData string
}

// Stage is one admission check. A non-nil error means a collaborator failed
// unexpectedly; the orchestrator converts that to a fatal envelope.
type Stage interface {
	Name() string
	Evaluate(ctx context.Context, meta *RequestMeta) (types.Decision, error)
}
