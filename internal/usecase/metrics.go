package usecase

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess      = "success"
	resultFailed       = "failed"
	resultMissingImage = "missing_image"
)

// Metrics holds the Prometheus collectors for the analysis flow. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics creates the analysis collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faceglow",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total number of face analysis requests, labeled by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faceglow",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent decoding the image, calling the vision model and parsing its reply.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "faceglow",
			Subsystem: "analysis",
			Name:      "in_flight",
			Help:      "Current number of face analyses waiting on the vision model.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeResult(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

// start marks an analysis as in flight and returns a func that records its
// duration.
func (m *Metrics) start(provider string) func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	started := time.Now()
	return func() {
		m.inFlight.Dec()
		m.duration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
	}
}
