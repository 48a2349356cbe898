package admission

import (
	"context"
	"time"

	"github.com/astralhq/chatgate/pkg/infra/abuse"
	"github.com/sirupsen/logrus"
)

// asyncScorer issues abuse-score increments off the response path. A failed
// increment is logged and never changes the admission decision already made.
type asyncScorer struct {
	tracker abuse.Tracker
	logger  *logrus.Logger
	timeout time.Duration
}

func newAsyncScorer(tracker abuse.Tracker, logger *logrus.Logger, timeout time.Duration) *asyncScorer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &asyncScorer{tracker: tracker, logger: logger, timeout: timeout}
}

// Record fires the increment on a detached context: the caller's request
// context may already be cancelled by the time the write lands.
func (s *asyncScorer) Record(ip string, weight int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.tracker.Increment(ctx, ip, weight); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"ip":     ip,
				"weight": weight,
			}).Warn("failed to increment abuse score")
		}
	}()
}
