package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver counts engine events per type in a Prometheus counter,
// labelled by event type. It composes with other sinks via MultiObserver.
type MetricsObserver struct {
	events *prometheus.CounterVec
}

// NewMetricsObserver creates a MetricsObserver registered with reg. Pass
// prometheus.DefaultRegisterer to expose the counters on the default
// registry.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	return &MetricsObserver{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "rewind_events_total",
			Help: "Total engine events emitted, by event type",
		}, []string{"type"}),
	}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type)).Inc()
}
