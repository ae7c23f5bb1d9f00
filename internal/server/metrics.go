package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// stepDecode labels failures that happen before the pipeline runs.
const stepDecode = "decode"

// metrics holds the collectors of one Server. They are registered on the
// registry given to WithMetrics, never on the global one.
type metrics struct {
	valuations   prometheus.Counter
	failures     *prometheus.CounterVec
	entropyBits  prometheus.Histogram
	defenseScore prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		valuations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "panopticlick_valuations_total",
			Help: "Submissions valued successfully.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "panopticlick_valuation_failures_total",
			Help: "Submissions rejected, by the step that failed.",
		}, []string{"step"}),
		entropyBits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "panopticlick_entropy_bits",
			Help:    "Total identifying bits of valued fingerprints.",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		}),
		defenseScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "panopticlick_defense_score",
			Help:    "Defense score of valued fingerprints.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.valuations, m.failures, m.entropyBits, m.defenseScore} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(report *model.ValuationReport) {
	if m == nil {
		return
	}
	m.valuations.Inc()
	m.entropyBits.Observe(report.Entropy.TotalBits)
	m.defenseScore.Observe(float64(report.Defenses.Score))
}

func (m *metrics) fail(step string) {
	if m == nil {
		return
	}
	if step == "" {
		step = "unknown"
	}
	m.failures.WithLabelValues(step).Inc()
}
