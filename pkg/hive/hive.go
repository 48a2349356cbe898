// Package hive wraps the external multi-provider orchestrator. Provider
// selection, failover and caching all live on the other side of this
// interface; the pipeline issues exactly one Generate call per request.
package hive

import (
	"context"

	"github.com/astralhq/chatgate/pkg/types"
)

// GenerateParams are the knobs the pipeline controls per request. MaxTokens
// is a ceiling derived from the trust score, not a request for that many.
type GenerateParams struct {
	Messages    []types.Message
	MaxTokens   int
	Temperature float64
	TaskType    string
}

//go:generate mockery --name=Generator --dir=. --output=../mocks --filename=generator_mock.go --case=underscore --with-expecter
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (types.ProviderResponse, error)
}
