package admission

import (
	"context"
	"net/http"

	"github.com/astralhq/chatgate/pkg/infra/abuse"
	"github.com/astralhq/chatgate/pkg/types"
)

const blockedMessage = "Your access has been restricted. Contact support if you believe this is a mistake."

type ipBlockStage struct {
	tracker abuse.Tracker
}

// NewIPBlockStage denies callers whose accumulated abuse score put them on
// the block list. It intentionally consumes no rate-limit budget and adds
// no abuse score itself.
func NewIPBlockStage(tracker abuse.Tracker) Stage {
	return &ipBlockStage{tracker: tracker}
}

func (s *ipBlockStage) Name() string {
	return "ip_block"
}

func (s *ipBlockStage) Evaluate(ctx context.Context, meta *RequestMeta) (types.Decision, error) {
	blocked, err := s.tracker.IsBlocked(ctx, meta.ClientIP)
	if err != nil {
		return types.Continue(), err
	}
	if !blocked {
		return types.Continue(), nil
	}

	return types.DenyWith(&types.Deny{
		StatusCode: http.StatusForbidden,
		Provider:   types.ProviderSecurity,
		Message:    blockedMessage,
		Warning:    types.WarningIPBlocked,
	}), nil
}
