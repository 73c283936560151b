package approval

import (
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts approval outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the approval collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_approvals_total",
			Help: "Shop approval attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shop_approval_duration_seconds",
			Help:    "Time spent running a shop approval.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.outcomes, m.duration)
	return m
}

func (m *Metrics) observe(out *Outcome, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	m.outcomes.WithLabelValues(outcomeLabel(out, err)).Inc()
}

func outcomeLabel(out *Outcome, err error) string {
	switch {
	case err != nil:
		return string(domain.KindOf(err))
	case out != nil && out.AlreadyApproved:
		return "already_approved"
	default:
		return "approved"
	}
}
