// Package pipeline composes admission, validation, moderation, generation
// and scoring into the single chat request handler. Stages run strictly in
// order; the first denial wins and every unexpected failure is normalized
// to a fatal envelope before it can leak to the client.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/astralhq/chatgate/pkg/admission"
	"github.com/astralhq/chatgate/pkg/guardian"
	"github.com/astralhq/chatgate/pkg/hive"
	"github.com/astralhq/chatgate/pkg/policy"
	"github.com/astralhq/chatgate/pkg/prompt"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/astralhq/chatgate/pkg/validate"
	"github.com/sirupsen/logrus"
)

// Stage names reported to the observer for the non-admission stages.
const (
	stageValidate      = "validate"
	stageModerationIn  = "moderation_in"
	stageGenerate      = "generate"
	stageModerationOut = "moderation_out"
)

type Options struct {
	// BaseTemplate seeds the system prompt; empty falls back to the
	// built-in personality.
	BaseTemplate string
	Temperature  float64
	TaskType     string
}

type Orchestrator struct {
	admission *admission.Controller
	guardian  guardian.Guardian
	generator hive.Generator
	observer  types.StageObserver
	logger    *logrus.Logger
	opts      Options
}

type OrchestratorDI struct {
	Admission *admission.Controller
	Guardian  guardian.Guardian
	Generator hive.Generator
	Observer  types.StageObserver
	Logger    *logrus.Logger
	Options   Options
}

func NewOrchestrator(di OrchestratorDI) *Orchestrator {
	observer := di.Observer
	if observer == nil {
		observer = types.NopObserver{}
	}
	opts := di.Options
	if opts.BaseTemplate == "" {
		opts.BaseTemplate = prompt.DefaultTemplate
	}
	if opts.TaskType == "" {
		opts.TaskType = "chat"
	}
	return &Orchestrator{
		admission: di.Admission,
		guardian:  di.Guardian,
		generator: di.Generator,
		observer:  observer,
		logger:    di.Logger,
		opts:      opts,
	}
}

// Handle runs one request through the whole pipeline. It always returns a
// renderable result, even under total collaborator failure.
func (o *Orchestrator) Handle(ctx context.Context, meta *admission.RequestMeta, req *types.ChatRequest) *Result {
	start := time.Now()

	decision, err := o.admission.Admit(ctx, meta)
	if err != nil {
		return o.fatal("admission", start, err)
	}
	if decision.Denied() {
		return assembleDeny(decision.Deny)
	}

	if result := o.runValidate(req); result != nil {
		return result
	}

	trust, deny, err := o.runModerationIn(ctx, req)
	if err != nil {
		return o.fatal(stageModerationIn, start, err)
	}
	if deny != nil {
		return assembleDeny(deny)
	}

	providerResp, err := o.runGenerate(ctx, req, trust)
	if err != nil {
		return o.fatal(stageGenerate, start, err)
	}

	content, warnings, err := o.runModerationOut(ctx, req.UserID, providerResp.Content)
	if err != nil {
		return o.fatal(stageModerationOut, start, err)
	}

	confidence := policy.Confidence(providerResp.Cached, providerResp.TokensUsed, trust)

	return assembleSuccess(
		content,
		providerResp.ProviderID,
		confidence,
		providerResp.Cached,
		warnings,
		time.Since(start),
	)
}

func (o *Orchestrator) runValidate(req *types.ChatRequest) *Result {
	start := time.Now()
	errs := validate.ChatRequest(req)
	if errs != nil {
		o.observer.ObserveStage(stageValidate, types.OutcomeDeny, time.Since(start))
		return assembleValidation(errs)
	}
	o.observer.ObserveStage(stageValidate, types.OutcomeContinue, time.Since(start))
	return nil
}

// runModerationIn sends the last user message through the moderation
// service. A blocked input is a deliberate soft fail: HTTP 200 with a
// guardian envelope, so the client still renders a chat bubble.
func (o *Orchestrator) runModerationIn(ctx context.Context, req *types.ChatRequest) (float64, *types.Deny, error) {
	start := time.Now()

	idx := req.LastUserIndex()
	result, err := o.guardian.ProcessInput(ctx, req.Messages[idx].Content, req.UserID)
	if err != nil {
		o.observer.ObserveStage(stageModerationIn, types.OutcomeError, time.Since(start))
		return 0, nil, err
	}

	if !result.Allowed {
		o.observer.ObserveStage(stageModerationIn, types.OutcomeDeny, time.Since(start))
		message := result.Reason
		warning := result.Reason
		if message == "" {
			message = genericDenyMessage
		}
		if warning == "" {
			warning = types.WarningInputBlocked
		}
		return 0, &types.Deny{
			StatusCode: http.StatusOK,
			Provider:   types.ProviderGuardian,
			Message:    message,
			Warning:    warning,
		}, nil
	}

	if result.SanitizedInput != "" {
		req.Messages[idx].Content = result.SanitizedInput
	}

	trust := policy.DefaultTrustScore
	if result.TrustScore != nil {
		trust = *result.TrustScore
	}

	o.observer.ObserveStage(stageModerationIn, types.OutcomeContinue, time.Since(start))
	return trust, nil, nil
}

func (o *Orchestrator) runGenerate(ctx context.Context, req *types.ChatRequest, trust float64) (types.ProviderResponse, error) {
	start := time.Now()

	system := prompt.Build(o.opts.BaseTemplate, req.Context)
	messages := make([]types.Message, 0, len(req.Messages)+1)
	messages = append(messages, types.Message{Role: types.RoleSystem, Content: system})
	messages = append(messages, req.Messages...)

	resp, err := o.generator.Generate(ctx, hive.GenerateParams{
		Messages:    messages,
		MaxTokens:   policy.BudgetFor(trust),
		Temperature: o.opts.Temperature,
		TaskType:    o.opts.TaskType,
	})
	if err != nil {
		o.observer.ObserveStage(stageGenerate, types.OutcomeError, time.Since(start))
		return types.ProviderResponse{}, err
	}

	o.observer.ObserveStage(stageGenerate, types.OutcomeContinue, time.Since(start))
	return resp, nil
}

// runModerationOut can only sanitize, never deny. The asymmetry with the
// input stage is deliberate: the model's output came from our own prompt,
// so rewriting beats refusing a reply the user already waited for.
func (o *Orchestrator) runModerationOut(ctx context.Context, userID, content string) (string, []string, error) {
	start := time.Now()

	result, err := o.guardian.ProcessOutput(ctx, content, userID)
	if err != nil {
		o.observer.ObserveStage(stageModerationOut, types.OutcomeError, time.Since(start))
		return "", nil, err
	}

	var warnings []string
	if result.SanitizedOutput != "" && result.SanitizedOutput != content {
		content = result.SanitizedOutput
		warnings = append(warnings, types.WarningOutputSanitized)
	}

	o.observer.ObserveStage(stageModerationOut, types.OutcomeContinue, time.Since(start))
	return content, warnings, nil
}

// fatal logs the failure with enough context to diagnose without content
// and returns the generic 500 envelope. Internal detail never reaches the
// client.
func (o *Orchestrator) fatal(stage string, start time.Time, err error) *Result {
	o.logger.WithError(err).WithFields(logrus.Fields{
		"stage":      stage,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Error("pipeline stage failed")
	return assembleFatal()
}
