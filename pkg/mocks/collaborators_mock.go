package mocks

import (
	"context"
	"time"

	"github.com/astralhq/chatgate/pkg/guardian"
	"github.com/astralhq/chatgate/pkg/hive"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MaintenanceStore struct {
	mock.Mock
}

func (m *MaintenanceStore) Status(ctx context.Context) (types.MaintenanceStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(types.MaintenanceStatus)
	return status, args.Error(1)
}

type BotClassifier struct {
	mock.Mock
}

func (m *BotClassifier) Classify(ctx context.Context, userAgent, clientData string) types.BotVerdict {
	args := m.Called(ctx, userAgent, clientData)
	verdict, _ := args.Get(0).(types.BotVerdict)
	return verdict
}

type RateLimiter struct {
	mock.Mock
}

func (m *RateLimiter) Check(ctx context.Context, ip, category string) (types.RateLimitResult, error) {
	args := m.Called(ctx, ip, category)
	result, _ := args.Get(0).(types.RateLimitResult)
	return result, args.Error(1)
}

type Guardian struct {
	mock.Mock
}

func (m *Guardian) ProcessInput(ctx context.Context, text, userID string) (guardian.InputResult, error) {
	args := m.Called(ctx, text, userID)
	result, _ := args.Get(0).(guardian.InputResult)
	return result, args.Error(1)
}

func (m *Guardian) ProcessOutput(ctx context.Context, content, userID string) (guardian.OutputResult, error) {
	args := m.Called(ctx, content, userID)
	result, _ := args.Get(0).(guardian.OutputResult)
	return result, args.Error(1)
}

type Generator struct {
	mock.Mock
}

func (m *Generator) Generate(ctx context.Context, params hive.GenerateParams) (types.ProviderResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(types.ProviderResponse)
	return resp, args.Error(1)
}

type StageObserver struct {
	mock.Mock
}

func (m *StageObserver) ObserveStage(stage, outcome string, latency time.Duration) {
	m.Called(stage, outcome, latency)
}
