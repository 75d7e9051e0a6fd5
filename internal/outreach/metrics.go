package outreach

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// Metrics observes dispatch progress.
type Metrics interface {
	ObserveAttempt(ch model.Channel, status model.OutcomeStatus, elapsed time.Duration)
	SetInFlight(n int)
	CampaignFinished(result *model.CampaignResult)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveAttempt(model.Channel, model.OutcomeStatus, time.Duration) {}
func (NopMetrics) SetInFlight(int)                                                 {}
func (NopMetrics) CampaignFinished(*model.CampaignResult)                          {}

// PromMetrics records dispatch events in Prometheus metrics.
type PromMetrics struct {
	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	campaigns *prometheus.CounterVec
}

// NewPromMetrics registers outreach metrics on reg. If reg is nil the
// default registerer is used. Collectors that are already registered are
// reused, so several dispatchers in one process share them.
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procure_outreach_attempts_total",
		Help: "Channel outcomes recorded per candidate",
	}, []string{"channel", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "procure_outreach_send_seconds",
		Help:    "Time spent in a transport send",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "procure_outreach_in_flight",
		Help: "Candidate tasks currently holding an admission slot",
	})
	campaigns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procure_campaigns_total",
		Help: "Finished campaigns by outcome",
	}, []string{"outcome"})

	var err error
	if attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if inFlight, err = register(reg, inFlight); err != nil {
		return nil, err
	}
	if campaigns, err = register(reg, campaigns); err != nil {
		return nil, err
	}

	return &PromMetrics{attempts: attempts, latency: latency, inFlight: inFlight, campaigns: campaigns}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveAttempt counts one channel outcome and, for real attempts, its latency.
func (m *PromMetrics) ObserveAttempt(ch model.Channel, status model.OutcomeStatus, elapsed time.Duration) {
	m.attempts.WithLabelValues(string(ch), string(status)).Inc()
	if status != model.OutcomeSkipped {
		m.latency.WithLabelValues(string(ch)).Observe(elapsed.Seconds())
	}
}

// SetInFlight sets the in-flight gauge.
func (m *PromMetrics) SetInFlight(n int) {
	m.inFlight.Set(float64(n))
}

// CampaignFinished counts a finished campaign.
func (m *PromMetrics) CampaignFinished(result *model.CampaignResult) {
	outcome := "completed"
	if result.Aborted {
		outcome = "aborted"
	}
	m.campaigns.WithLabelValues(outcome).Inc()
}
