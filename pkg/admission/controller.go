package admission

import (
	"context"
	"time"

	"github.com/astralhq/chatgate/pkg/infra/abuse"
	"github.com/astralhq/chatgate/pkg/infra/botid"
	"github.com/astralhq/chatgate/pkg/infra/flags"
	"github.com/astralhq/chatgate/pkg/infra/ratelimit"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/sirupsen/logrus"
)

// Controller runs the admission stages in their fixed order, stopping at
// the first denial. The stage list is explicit so it can be inspected and
// each stage unit-tested on its own.
type Controller struct {
	stages   []Stage
	observer types.StageObserver
	logger   *logrus.Logger
}

type ControllerDI struct {
	Maintenance      flags.MaintenanceStore
	Abuse            abuse.Tracker
	Bots             botid.Classifier
	Limiter          ratelimit.Limiter
	Observer         types.StageObserver
	Logger           *logrus.Logger
	IncrementTimeout time.Duration
}

func NewController(di ControllerDI) *Controller {
	observer := di.Observer
	if observer == nil {
		observer = types.NopObserver{}
	}

	scorer := newAsyncScorer(di.Abuse, di.Logger, di.IncrementTimeout)

	return &Controller{
		stages: []Stage{
			NewMaintenanceStage(di.Maintenance),
			NewIPBlockStage(di.Abuse),
			NewBotStage(di.Bots, scorer),
			NewRateLimitStage(di.Limiter, scorer),
		},
		observer: observer,
		logger:   di.Logger,
	}
}

// Admit evaluates the stages in order. The returned error marks a
// collaborator failure and maps to a fatal envelope upstream.
func (c *Controller) Admit(ctx context.Context, meta *RequestMeta) (types.Decision, error) {
	for _, stage := range c.stages {
		start := time.Now()
		decision, err := stage.Evaluate(ctx, meta)
		latency := time.Since(start)

		if err != nil {
			c.observer.ObserveStage(stage.Name(), types.OutcomeError, latency)
			c.logger.WithError(err).WithField("stage", stage.Name()).Error("admission stage failed")
			return types.Continue(), err
		}

		if decision.Denied() {
			c.observer.ObserveStage(stage.Name(), types.OutcomeDeny, latency)
			return decision, nil
		}
		c.observer.ObserveStage(stage.Name(), types.OutcomeContinue, latency)
	}
	return types.Continue(), nil
}
