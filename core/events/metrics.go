package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/heirloom"
)

var promEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "heirloom_events_total",
	Help: "total number of events published, per topic",
}, []string{"topic"})

func init() {
	heirloom.PromCollectors = append(heirloom.PromCollectors, promEvents)
}

// Metrics is a publisher that counts the events per topic.
//
// - implements events.Publisher
type Metrics struct {
	counter *prometheus.CounterVec
}

// NewMetrics returns a publisher that increments the event counter of the
// application.
func NewMetrics() Metrics {
	return Metrics{counter: promEvents}
}

// Publish implements events.Publisher.
func (m Metrics) Publish(topic string, attrs ...Attr) {
	m.counter.WithLabelValues(topic).Inc()
}
