package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// SummaryAggregator rolls a device window up into a domain.Summary.
type SummaryAggregator struct{}

func NewSummaryAggregator() *SummaryAggregator {
	return &SummaryAggregator{}
}

// Summarize expects the samples of a single device, as returned by
// RangeQueryEngine.History. The input slice is not modified.
func (a *SummaryAggregator) Summarize(deviceID string, periodHours float64, samples []domain.Sample) domain.Summary {
	summary := domain.Summary{
		DeviceID:    deviceID,
		PeriodHours: periodHours,
		DataPoints:  len(samples),
	}
	if len(samples) == 0 {
		return summary
	}

	sorted := make([]domain.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampServer < sorted[j].TimestampServer
	})

	summary.TotalEnergyWh = toFloat(energyDelta(sorted[0].Energy, sorted[len(sorted)-1].Energy))

	var voltage, current, power stats
	for _, s := range sorted {
		voltage.add(s.Voltage.Decimal())
		current.add(s.Current.Decimal())
		power.add(s.Power.Decimal())
	}
	summary.Voltage = voltage.result()
	summary.Current = current.result()
	summary.Power = power.result()
	return summary
}

// energyDelta is last-first of the cumulative counter, or last alone when the
// counter went backwards (device reset).
func energyDelta(first, last domain.Measure) decimal.Decimal {
	delta := last.Decimal().Sub(first.Decimal())
	if delta.IsNegative() {
		return last.Decimal()
	}
	return delta
}

type stats struct {
	n        int64
	sum      decimal.Decimal
	min, max decimal.Decimal
}

func (s *stats) add(v decimal.Decimal) {
	if s.n == 0 || v.LessThan(s.min) {
		s.min = v
	}
	if s.n == 0 || v.GreaterThan(s.max) {
		s.max = v
	}
	s.sum = s.sum.Add(v)
	s.n++
}

func (s *stats) result() domain.MetricStats {
	if s.n == 0 {
		return domain.MetricStats{}
	}
	return domain.MetricStats{
		Min: toFloat(s.min),
		Max: toFloat(s.max),
		Avg: toFloat(s.sum.Div(decimal.NewFromInt(s.n))),
	}
}

// toFloat keeps the summary JSON-encodable: a result beyond float64 range
// reports as 0.
func toFloat(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
