package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
)

func energySeries(energies ...float64) []domain.Sample {
	out := make([]domain.Sample, len(energies))
	for i, e := range energies {
		out[i] = sample("node-1", at(time.Duration(i-len(energies))*time.Minute), 230, 1, 230, e)
	}
	return out
}

func TestSummarizeEmptyWindow(t *testing.T) {
	got := NewSummaryAggregator().Summarize("node-1", 24, nil)

	want := domain.Summary{DeviceID: "node-1", PeriodHours: 24}
	if got != want {
		t.Fatalf("expected zero summary, got %+v", got)
	}
}

func TestSummarizeEnergyDelta(t *testing.T) {
	got := NewSummaryAggregator().Summarize("node-1", 24, energySeries(100, 120, 150))
	if !approx(got.TotalEnergyWh, 50) {
		t.Fatalf("expected 50 Wh, got %v", got.TotalEnergyWh)
	}
}

func TestSummarizeEnergyRollover(t *testing.T) {
	got := NewSummaryAggregator().Summarize("node-1", 24, energySeries(100, 120, 150, 10))
	if !approx(got.TotalEnergyWh, 10) {
		t.Fatalf("expected reset fallback of 10 Wh, got %v", got.TotalEnergyWh)
	}
}

func TestSummarizeSortsByServerTimestamp(t *testing.T) {
	series := energySeries(100, 120, 150)
	shuffled := []domain.Sample{series[2], series[0], series[1]}

	got := NewSummaryAggregator().Summarize("node-1", 24, shuffled)
	if !approx(got.TotalEnergyWh, 50) {
		t.Fatalf("expected 50 Wh after sorting, got %v", got.TotalEnergyWh)
	}
	if shuffled[0].Energy.Float() != 150 {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestSummarizeMinMaxAvg(t *testing.T) {
	samples := []domain.Sample{
		sample("node-1", at(-3*time.Minute), 10, 0.1, 1, 0),
		sample("node-1", at(-2*time.Minute), 12, 0.2, 2, 0),
		sample("node-1", at(-1*time.Minute), 8, 0.3, 6, 0),
	}

	got := NewSummaryAggregator().Summarize("node-1", 6, samples)
	if got.Voltage.Min != 8 || got.Voltage.Max != 12 || !approx(got.Voltage.Avg, 10) {
		t.Fatalf("unexpected voltage stats %+v", got.Voltage)
	}
	if !approx(got.Current.Min, 0.1) || !approx(got.Current.Max, 0.3) || !approx(got.Current.Avg, 0.2) {
		t.Fatalf("unexpected current stats %+v", got.Current)
	}
	if got.Power.Min != 1 || got.Power.Max != 6 || !approx(got.Power.Avg, 3) {
		t.Fatalf("unexpected power stats %+v", got.Power)
	}
	if got.DataPoints != 3 || got.PeriodHours != 6 {
		t.Fatalf("unexpected bookkeeping %+v", got)
	}
}

func TestSummarizeBadReadingsCountAsZero(t *testing.T) {
	samples := []domain.Sample{
		sample("node-1", at(-2*time.Minute), 10, 1, 1, 100),
		{
			DeviceID:        "node-1",
			Voltage:         domain.NewMeasure("n/a"),
			Current:         domain.NewMeasure(nil),
			Power:           domain.NewMeasure(true),
			Energy:          domain.NewMeasure("garbage"),
			TimestampServer: at(-1 * time.Minute),
		},
	}

	got := NewSummaryAggregator().Summarize("node-1", 24, samples)
	if got.Voltage.Min != 0 || got.Voltage.Max != 10 || !approx(got.Voltage.Avg, 5) {
		t.Fatalf("unexpected voltage stats %+v", got.Voltage)
	}
	// 0 - 100 is negative, so the reset fallback reports the last reading (0)
	if got.TotalEnergyWh != 0 {
		t.Fatalf("expected 0 Wh, got %v", got.TotalEnergyWh)
	}
}

func TestSummarizeNumericStrings(t *testing.T) {
	samples := []domain.Sample{
		{DeviceID: "node-1", Voltage: domain.NewMeasure("230.5"), Energy: domain.NewMeasure("100.1"), TimestampServer: at(-2 * time.Minute)},
		{DeviceID: "node-1", Voltage: domain.NewMeasure(" 229.5 "), Energy: domain.NewMeasure("150.3"), TimestampServer: at(-1 * time.Minute)},
	}

	got := NewSummaryAggregator().Summarize("node-1", 24, samples)
	if got.TotalEnergyWh != 50.2 {
		t.Fatalf("expected exact 50.2 Wh, got %v", got.TotalEnergyWh)
	}
	if got.Voltage.Avg != 230 {
		t.Fatalf("expected avg voltage 230, got %v", got.Voltage.Avg)
	}
}

func TestSummarizeOutOfRangeReadings(t *testing.T) {
	huge := mustRequest(t, `{"deviceId":"node-1","timestamp":1,"voltage":1e400,"current":1,"power":1,"energy":-1e308,"rssi":-70}`)
	first, err := NewIngestValidator(fixedClock).Check(huge)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	first.TimestampServer = at(-2 * time.Minute)

	samples := []domain.Sample{
		first,
		sample("node-1", at(-1*time.Minute), 10, 1, 1, 1e308),
	}

	got := NewSummaryAggregator().Summarize("node-1", 24, samples)
	if got.Voltage.Min != 0 || got.Voltage.Max != 10 || !approx(got.Voltage.Avg, 5) {
		t.Fatalf("out-of-range voltage should count as 0, got %+v", got.Voltage)
	}
	// 1e308 - (-1e308) does not fit a float64
	if got.TotalEnergyWh != 0 {
		t.Fatalf("expected 0 Wh for an unrepresentable delta, got %v", got.TotalEnergyWh)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("summary must stay encodable: %v", err)
	}
}
