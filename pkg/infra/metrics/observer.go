// Package metrics implements the pipeline's stage observer on top of
// logrus and prometheus.
package metrics

import (
	"time"

	"github.com/astralhq/chatgate/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	stageDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_stage_decisions_total",
			Help: "Pipeline stage outcomes by stage and decision.",
		},
		[]string{"stage", "outcome"},
	)
	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgate_stage_latency_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// Register installs the gateway collectors on the given registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(stageDecisions, stageLatency)
}

type observer struct {
	logger *logrus.Logger
}

// NewObserver records every stage outcome to prometheus and, at debug
// level, to the log.
func NewObserver(logger *logrus.Logger) types.StageObserver {
	return &observer{logger: logger}
}

func (o *observer) ObserveStage(stage, outcome string, latency time.Duration) {
	stageDecisions.WithLabelValues(stage, outcome).Inc()
	stageLatency.WithLabelValues(stage).Observe(latency.Seconds())

	o.logger.WithFields(logrus.Fields{
		"stage":      stage,
		"outcome":    outcome,
		"latency_ms": latency.Milliseconds(),
	}).Debug("pipeline stage evaluated")
}
