package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
	SourceMQTT  = "mqtt"
)

type PromObs struct {
	ingested   *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	storeErrs  *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	dataPoints prometheus.Gauge
}

// NewPromObs registers the service metrics on reg, or on the default
// registerer when reg is nil.
func NewPromObs(reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powrmet_samples_ingested_total",
		Help: "Samples successfully written to the store.",
	}, []string{"source"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powrmet_validation_failures_total",
		Help: "Inbound samples rejected for missing fields.",
	}, []string{"source"})
	storeErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powrmet_store_errors_total",
		Help: "Failed store operations.",
	}, []string{"op"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powrmet_query_duration_seconds",
		Help:    "Time spent serving an operation, store round trip included.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"op"})
	dataPoints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powrmet_summary_datapoints",
		Help: "Number of samples in the most recently computed summary.",
	})

	reg.MustRegister(ingested, rejected, storeErrs, latency, dataPoints)

	return &PromObs{
		ingested:   ingested,
		rejected:   rejected,
		storeErrs:  storeErrs,
		latency:    latency,
		dataPoints: dataPoints,
	}
}

func (p *PromObs) IncIngested(source string, n int) {
	p.ingested.WithLabelValues(source).Add(float64(n))
}

func (p *PromObs) IncRejected(source string) {
	p.rejected.WithLabelValues(source).Inc()
}

func (p *PromObs) IncStoreError(op string) {
	p.storeErrs.WithLabelValues(op).Inc()
}

func (p *PromObs) ObserveLatency(op string, seconds float64) {
	p.latency.WithLabelValues(op).Observe(seconds)
}

func (p *PromObs) SetSummaryDataPoints(n int) {
	p.dataPoints.Set(float64(n))
}
