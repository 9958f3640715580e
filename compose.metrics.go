package compose

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of an engine. A nil *Metrics
// records nothing.
type Metrics struct {
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	parses         *prometheus.CounterVec
	loads          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRendersTotal,
				Help:      MetricHelpRendersTotal,
			},
			[]string{MetricLabelTemplate, MetricLabelStatus},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      MetricRenderDuration,
				Help:      MetricHelpRenderSeconds,
				Buckets:   prometheus.DefBuckets,
			},
			[]string{MetricLabelTemplate},
		),
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricParsesTotal,
				Help:      MetricHelpParsesTotal,
			},
			[]string{MetricLabelStatus},
		),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      MetricLoadsTotal,
				Help:      MetricHelpLoadsTotal,
			},
			[]string{MetricLabelResult},
		),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, NewConfigError(ErrMsgMetricsRegistration, err)
			}
		}
	}
	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on error.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.renders, m.renderDuration, m.parses, m.loads}
}

func (m *Metrics) observeRender(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(name, statusLabel(err)).Inc()
	m.renderDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) observeParse(err error) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(statusLabel(err)).Inc()
}

func (m *Metrics) observeLoad(result string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return MetricStatusError
	}
	return MetricStatusOK
}
