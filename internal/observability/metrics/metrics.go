package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes recorded by ObserveSubmission.
const (
	OutcomeCreated     = "created"
	OutcomeMalformed   = "malformed"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeHoneypot    = "honeypot"
	OutcomeStoreError  = "store_error"
)

// LeadMetrics exposes counters/histograms for the lead intake flow.
type LeadMetrics struct {
	submissionsTotal     *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	notificationAttempts prometheus.Histogram
	handlerLatency       *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "t5fueling",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome",
		}, []string{"outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "t5fueling",
			Subsystem: "leads",
			Name:      "notifications_total",
			Help:      "Staff notification emails by result",
		}, []string{"provider", "status"}),
		notificationAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "t5fueling",
			Subsystem: "leads",
			Name:      "notification_attempts",
			Help:      "Send attempts used per notification",
			Buckets:   []float64{1, 2, 3, 4, 5, 6},
		}),
		handlerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "t5fueling",
			Subsystem: "leads",
			Name:      "handler_latency_seconds",
			Help:      "Latency of lead submission handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.notificationsTotal, m.notificationAttempts, m.handlerLatency)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.handlerLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *LeadMetrics) ObserveNotification(provider string, attempts int, delivered bool) {
	if m == nil {
		return
	}
	status := "failed"
	if delivered {
		status = "delivered"
	}
	m.notificationsTotal.WithLabelValues(provider, status).Inc()
	if attempts > 0 {
		m.notificationAttempts.Observe(float64(attempts))
	}
}
