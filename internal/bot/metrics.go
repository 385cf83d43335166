package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdatesTotal         *prometheus.CounterVec
	UpdateProcessingTime *prometheus.HistogramVec
	ErrorsTotal          *prometheus.CounterVec
}

// NewMetrics registers the bot metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "telegram_updates_total",
			Help:      "Telegram updates handled, by kind",
		}, []string{"kind"}),

		UpdateProcessingTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wellmeet",
			Name:      "telegram_update_processing_time_seconds",
			Help:      "Time spent processing updates",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellmeet",
			Name:      "telegram_errors_total",
			Help:      "Errors shown to users, by category",
		}, []string{"category"}),
	}
}

func (m *Metrics) observeUpdate(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(kind).Inc()
	m.UpdateProcessingTime.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) incError(category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category).Inc()
}
