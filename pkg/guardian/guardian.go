// Package guardian wraps the external content-moderation service that
// sanitizes untrusted input and output and scores how much the caller can
// be trusted.
package guardian

import "context"

// InputResult is the moderation verdict for the user's message. TrustScore
// is nil when the service did not compute one; callers fall back to 0.5.
type InputResult struct {
	Allowed        bool     `json:"allowed"`
	SanitizedInput string   `json:"sanitized_input,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	TrustScore     *float64 `json:"trust_score,omitempty"`
}

// OutputResult carries the sanitized reply, if the service rewrote it.
type OutputResult struct {
	SanitizedOutput string `json:"sanitized_output,omitempty"`
}

//go:generate mockery --name=Guardian --dir=. --output=../mocks --filename=guardian_mock.go --case=underscore --with-expecter
type Guardian interface {
	ProcessInput(ctx context.Context, text, userID string) (InputResult, error)
	ProcessOutput(ctx context.Context, content, userID string) (OutputResult, error)
}
