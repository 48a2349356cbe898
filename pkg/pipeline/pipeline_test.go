package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/astralhq/chatgate/pkg/admission"
	"github.com/astralhq/chatgate/pkg/common"
	"github.com/astralhq/chatgate/pkg/guardian"
	"github.com/astralhq/chatgate/pkg/hive"
	"github.com/astralhq/chatgate/pkg/mocks"
	"github.com/astralhq/chatgate/pkg/pipeline"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	maintenance  *mocks.MaintenanceStore
	abuse        *mocks.AbuseTracker
	bots         *mocks.BotClassifier
	limiter      *mocks.RateLimiter
	guardian     *mocks.Guardian
	generator    *mocks.Generator
	orchestrator *pipeline.Orchestrator
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &fixture{
		maintenance: &mocks.MaintenanceStore{},
		abuse:       &mocks.AbuseTracker{},
		bots:        &mocks.BotClassifier{},
		limiter:     &mocks.RateLimiter{},
		guardian:    &mocks.Guardian{},
		generator:   &mocks.Generator{},
	}

	controller := admission.NewController(admission.ControllerDI{
		Maintenance: f.maintenance,
		Abuse:       f.abuse,
		Bots:        f.bots,
		Limiter:     f.limiter,
		Logger:      logger,
	})
	f.orchestrator = pipeline.NewOrchestrator(pipeline.OrchestratorDI{
		Admission: controller,
		Guardian:  f.guardian,
		Generator: f.generator,
		Logger:    logger,
		Options:   pipeline.Options{Temperature: 0.7, TaskType: "chat"},
	})
	return f
}

func (f *fixture) admitAll() {
	f.maintenance.On("Status", mock.Anything).Return(types.MaintenanceStatus{}, nil)
	f.abuse.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.bots.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(types.BotVerdict{})
	f.limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).
		Return(types.RateLimitResult{Allowed: true, Limit: 20, Remaining: 19}, nil)
}

func (f *fixture) permissiveGuardian() {
	f.guardian.On("ProcessInput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.InputResult{Allowed: true}, nil)
	f.guardian.On("ProcessOutput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.OutputResult{}, nil)
}

var meta = &admission.RequestMeta{ClientIP: "1.2.3.4", UserAgent: "Mozilla/5.0"}

func helloRequest() *types.ChatRequest {
	return &types.ChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "Hello"}},
		UserID:   "u1",
	}
}

func TestHandle_BaselineSuccess(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.permissiveGuardian()
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Return(types.ProviderResponse{
			Content:    "Hi! Nice to meet you.",
			ProviderID: "openai",
			TokensUsed: 250,
			Cached:     false,
		}, nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "Hi! Nice to meet you.", result.Envelope.Content)
	assert.Equal(t, "openai", result.Envelope.Provider)
	// trust defaults to 0.5: 0.7 * (0.5 + 0.25) = 0.525
	assert.InDelta(t, 0.525, result.Envelope.Confidence, 1e-9)
	assert.False(t, result.Envelope.Cached)
	assert.Empty(t, result.Envelope.Warnings)
	assert.Equal(t, "openai", result.Headers[common.ProviderHeader])
	assert.Contains(t, result.Headers, common.RequestTimeHeader)
}

func TestHandle_MaintenanceEnvelope(t *testing.T) {
	f := newFixture()
	f.maintenance.On("Status", mock.Anything).
		Return(types.MaintenanceStatus{Enabled: true, Message: "Back soon"}, nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusServiceUnavailable, result.Status)
	assert.Equal(t, types.ProviderMaintenance, result.Envelope.Provider)
	assert.Equal(t, "Back soon", result.Envelope.Content)
	f.guardian.AssertNotCalled(t, "ProcessInput", mock.Anything, mock.Anything, mock.Anything)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHandle_RateLimitHeaders(t *testing.T) {
	resetAt := time.Now().Add(time.Minute)
	f := newFixture()
	f.maintenance.On("Status", mock.Anything).Return(types.MaintenanceStatus{}, nil)
	f.abuse.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.bots.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(types.BotVerdict{})
	f.limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).
		Return(types.RateLimitResult{Allowed: false, Limit: 20, Remaining: 0, ResetAt: resetAt}, nil)
	f.abuse.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusTooManyRequests, result.Status)
	assert.Equal(t, "20", result.Headers[common.RateLimitLimit])
	assert.Equal(t, "0", result.Headers[common.RateLimitRemaining])
	assert.Contains(t, result.Headers, common.RateLimitReset)
	assert.Contains(t, result.Headers, common.RetryAfterHeader)
	f.guardian.AssertNotCalled(t, "ProcessInput", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_ValidationFailure(t *testing.T) {
	f := newFixture()
	f.admitAll()

	result := f.orchestrator.Handle(context.Background(), meta, &types.ChatRequest{UserID: "u1"})

	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Contains(t, result.FieldErrors, "messages")
	f.guardian.AssertNotCalled(t, "ProcessInput", mock.Anything, mock.Anything, mock.Anything)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHandle_ModerationBlockedNeverGenerates(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, "Hello", "u1").
		Return(guardian.InputResult{Allowed: false, Reason: "harassment"}, nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	// Soft fail: the chat bubble UX stays uniform even for blocked content.
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, types.ProviderGuardian, result.Envelope.Provider)
	assert.Equal(t, []string{"harassment"}, result.Envelope.Warnings)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHandle_ModerationBlockedFallbackWarning(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.InputResult{Allowed: false}, nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, []string{types.WarningInputBlocked}, result.Envelope.Warnings)
	assert.NotEmpty(t, result.Envelope.Content)
}

func TestHandle_SanitizedInputReachesGenerator(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, "Hello", "u1").
		Return(guardian.InputResult{Allowed: true, SanitizedInput: "Hello [redacted]"}, nil)
	f.guardian.On("ProcessOutput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.OutputResult{}, nil)

	var seen hive.GenerateParams
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen, _ = args.Get(1).(hive.GenerateParams)
		}).
		Return(types.ProviderResponse{Content: "ok", ProviderID: "p", TokensUsed: 10}, nil)

	f.orchestrator.Handle(context.Background(), meta, helloRequest())

	require.Len(t, seen.Messages, 2)
	assert.Equal(t, types.RoleSystem, seen.Messages[0].Role)
	assert.Equal(t, "Hello [redacted]", seen.Messages[1].Content)
}

func TestHandle_TrustScoreDrivesTokenBudget(t *testing.T) {
	trust := 0.2
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.InputResult{Allowed: true, TrustScore: &trust}, nil)
	f.guardian.On("ProcessOutput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.OutputResult{}, nil)

	var seen hive.GenerateParams
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen, _ = args.Get(1).(hive.GenerateParams)
		}).
		Return(types.ProviderResponse{Content: "ok", ProviderID: "p", TokensUsed: 10}, nil)

	f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, 500, seen.MaxTokens)
}

func TestHandle_GenerationFailureIsFatalEnvelope(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.InputResult{Allowed: true}, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Return(types.ProviderResponse{}, errors.New("all providers down"))

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Equal(t, types.ProviderError, result.Envelope.Provider)
	assert.NotEmpty(t, result.Envelope.Content)
	assert.NotContains(t, result.Envelope.Content, "providers down")
	f.guardian.AssertNotCalled(t, "ProcessOutput", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_OutputSanitationReplacesContent(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.guardian.On("ProcessInput", mock.Anything, mock.Anything, mock.Anything).
		Return(guardian.InputResult{Allowed: true}, nil)
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Return(types.ProviderResponse{Content: "raw reply", ProviderID: "p", TokensUsed: 300}, nil)
	f.guardian.On("ProcessOutput", mock.Anything, "raw reply", "u1").
		Return(guardian.OutputResult{SanitizedOutput: "clean reply"}, nil)

	result := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "clean reply", result.Envelope.Content)
	assert.Equal(t, []string{types.WarningOutputSanitized}, result.Envelope.Warnings)
}

func TestHandle_ReplayIsDeterministic(t *testing.T) {
	f := newFixture()
	f.admitAll()
	f.permissiveGuardian()
	f.generator.On("Generate", mock.Anything, mock.Anything).
		Return(types.ProviderResponse{Content: "same", ProviderID: "p", TokensUsed: 250}, nil)

	first := f.orchestrator.Handle(context.Background(), meta, helloRequest())
	second := f.orchestrator.Handle(context.Background(), meta, helloRequest())

	assert.Equal(t, first.Envelope.Content, second.Envelope.Content)
	assert.Equal(t, first.Envelope.Confidence, second.Envelope.Confidence)
}
