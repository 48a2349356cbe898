package types

import "time"

// Stage outcomes reported to the observer.
const (
	OutcomeContinue = "continue"
	OutcomeDeny     = "deny"
	OutcomeError    = "error"
)

// StageObserver receives one record per executed pipeline stage. It exists
// so failure semantics can be tested without coupling to a concrete logging
// or metrics backend.
//
//go:generate mockery --name=StageObserver --dir=. --output=../mocks --filename=stage_observer_mock.go --case=underscore --with-expecter
type StageObserver interface {
	ObserveStage(stage, outcome string, latency time.Duration)
}

// NopObserver discards all records.
type NopObserver struct{}

func (NopObserver) ObserveStage(stage, outcome string, latency time.Duration) {}
