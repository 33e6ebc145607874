package notification

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSent          = "sent"
	outcomeNotConfigured = "not_configured"
	outcomeRenderError   = "render_error"
	outcomeDeliveryError = "delivery_error"
)

// Metrics counts trigger outcomes per channel
type Metrics struct {
	triggers *prometheus.CounterVec
}

// NewMetrics registers the dispatcher collectors with reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iam",
			Subsystem: "notifications",
			Name:      "triggers_total",
			Help:      "Notification triggers by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.triggers)
	}

	return m
}

// Triggers exposes the counter vector
func (m *Metrics) Triggers() *prometheus.CounterVec {
	return m.triggers
}

func (m *Metrics) observe(channel ChannelType, outcome string) {
	if m == nil {
		return
	}
	ch := string(channel)
	if ch == "" {
		ch = "unknown"
	}
	m.triggers.WithLabelValues(ch, outcome).Inc()
}
