package metrics

import "github.com/prometheus/client_golang/prometheus"

// FeedMetrics records change feed fan-out activity.
type FeedMetrics struct {
	published *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewFeedMetrics registers the change feed metrics on the provided registerer.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		return &FeedMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "changefeed_events_published_total",
		Help: "Events published to the change feed by entity.",
	}, []string{"entity"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "changefeed_events_dropped_total",
		Help: "Events dropped because a subscriber buffer was full.",
	}, []string{"entity"})
	reg.MustRegister(published, dropped)
	return &FeedMetrics{
		published: published,
		dropped:   dropped,
	}
}

// IncPublished increments the published counter for the entity.
func (f *FeedMetrics) IncPublished(entity string) {
	if f == nil || f.published == nil {
		return
	}
	f.published.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncDropped increments the dropped counter for the entity.
func (f *FeedMetrics) IncDropped(entity string) {
	if f == nil || f.dropped == nil {
		return
	}
	f.dropped.WithLabelValues(normalizeLabel(entity)).Inc()
}
