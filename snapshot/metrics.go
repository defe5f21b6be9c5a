package snapshot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "stakesnap"

// Metrics holds the collectors a snapshot run updates
type Metrics struct {
	retries           *prometheus.CounterVec
	droppedValidators *prometheus.CounterVec
	droppedDelegators *prometheus.CounterVec
	chainAbortedGauge *prometheus.GaugeVec
	delegators        *prometheus.GaugeVec
	chainDuration     *prometheus.GaugeVec
	lastSuccess       prometheus.Gauge
}

// NewMetrics registers the snapshot collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_retries_total",
			Help:      "Number of retried page requests.",
		}, []string{"chain"}),
		droppedValidators: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validators_dropped_total",
			Help:      "Number of validators whose delegations could not be fetched.",
		}, []string{"chain"}),
		droppedDelegators: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "delegators_dropped_total",
			Help:      "Number of delegators whose address could not be re-encoded.",
		}, []string{"chain"}),
		chainAbortedGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "chain_aborted",
			Help:      "1 if the chain was aborted during the last run, 0 otherwise.",
		}, []string{"chain"}),
		delegators: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "delegators_reported",
			Help:      "Number of delegators above threshold reported for the chain.",
		}, []string{"chain"}),
		chainDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "chain_duration_seconds",
			Help:      "Wall time spent processing the chain.",
		}, []string{"chain"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last snapshot that reached its writer.",
		}),
	}
}

func (m *Metrics) retried(chain string) {
	m.retries.WithLabelValues(chain).Inc()
}

func (m *Metrics) validatorDropped(chain string) {
	m.droppedValidators.WithLabelValues(chain).Inc()
}

func (m *Metrics) delegatorDropped(chain string) {
	m.droppedDelegators.WithLabelValues(chain).Inc()
}

func (m *Metrics) chainAborted(chain string) {
	m.chainAbortedGauge.WithLabelValues(chain).Set(1)
	m.delegators.WithLabelValues(chain).Set(0)
}

func (m *Metrics) chainDone(res ChainResult) {
	m.chainAbortedGauge.WithLabelValues(res.Chain).Set(0)
	m.delegators.WithLabelValues(res.Chain).Set(float64(len(res.Delegators)))
	m.chainDuration.WithLabelValues(res.Chain).Set(res.Duration.Seconds())
}

func (m *Metrics) snapshotSucceeded(at time.Time) {
	m.lastSuccess.Set(float64(at.Unix()))
}
