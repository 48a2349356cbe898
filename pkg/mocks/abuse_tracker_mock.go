package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type AbuseTracker struct {
	mock.Mock
}

func (m *AbuseTracker) Increment(ctx context.Context, ip string, weight int) error {
	args := m.Called(ctx, ip, weight)
	return args.Error(0)
}

func (m *AbuseTracker) IsBlocked(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}
