package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg)

	obs.IncIngested(SourceHTTP, 1)
	obs.IncIngested(SourceKafka, 5)
	if got := testutil.ToFloat64(obs.ingested.WithLabelValues(SourceKafka)); got != 5 {
		t.Fatalf("expected kafka ingested counter 5, got %f", got)
	}
	if got := testutil.ToFloat64(obs.ingested.WithLabelValues(SourceHTTP)); got != 1 {
		t.Fatalf("expected http ingested counter 1, got %f", got)
	}

	obs.IncRejected(SourceMQTT)
	if got := testutil.ToFloat64(obs.rejected.WithLabelValues(SourceMQTT)); got != 1 {
		t.Fatalf("expected rejected counter 1, got %f", got)
	}

	obs.IncStoreError("range")
	obs.IncStoreError("range")
	if got := testutil.ToFloat64(obs.storeErrs.WithLabelValues("range")); got != 2 {
		t.Fatalf("expected store error counter 2, got %f", got)
	}

	obs.SetSummaryDataPoints(42)
	if got := testutil.ToFloat64(obs.dataPoints); got != 42 {
		t.Fatalf("expected datapoints gauge 42, got %f", got)
	}

	obs.ObserveLatency("summary", 0.02)
	if n := testutil.CollectAndCount(obs.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestPromObsDefaultRegisterer(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	t.Cleanup(func() { prometheus.DefaultRegisterer = origReg })

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg

	NewPromObs(nil)
	if n, err := testutil.GatherAndCount(reg, "powrmet_summary_datapoints"); err != nil || n != 1 {
		t.Fatalf("expected gauge on the default registerer, got %d (%v)", n, err)
	}
}
