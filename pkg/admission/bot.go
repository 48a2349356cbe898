package admission

import (
	"context"
	"net/http"

	"github.com/astralhq/chatgate/pkg/infra/botid"
	"github.com/astralhq/chatgate/pkg/types"
)

const botBlockedMessage = "Automated traffic is not allowed on this endpoint."

type botStage struct {
	classifier botid.Classifier
	scorer     *asyncScorer
}

// NewBotStage denies unverified bots with 403 and charges their IP a fixed
// abuse weight. Humans and verified crawlers continue.
func NewBotStage(classifier botid.Classifier, scorer *asyncScorer) Stage {
	return &botStage{classifier: classifier, scorer: scorer}
}

func (s *botStage) Name() string {
	return "bot_check"
}

func (s *botStage) Evaluate(ctx context.Context, meta *RequestMeta) (types.Decision, error) {
	verdict := s.classifier.Classify(ctx, meta.UserAgent, meta.BotData)
	if !verdict.IsBot || verdict.IsVerifiedBot {
		return types.Continue(), nil
	}

	s.scorer.Record(meta.ClientIP, BotAbuseWeight)

	return types.DenyWith(&types.Deny{
		StatusCode: http.StatusForbidden,
		Provider:   types.ProviderBotID,
		Message:    botBlockedMessage,
		Warning:    types.WarningBotDetected,
	}), nil
}
