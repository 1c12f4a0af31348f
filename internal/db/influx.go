package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/richd0tcom/powrmet/internal/domain"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type fluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// InfluxSampleStore writes one point per sample with _time set to
// timestamp_server and deviceId as the only tag. Two samples of one device
// stamped in the same millisecond collapse into one point.
type InfluxSampleStore struct {
	client      influxdb2.Client
	writer      pointWriter
	querier     fluxQuerier
	bucket      string
	measurement string
}

func NewInfluxSampleStore(client influxdb2.Client, org, bucket, measurement string) *InfluxSampleStore {
	if measurement == "" {
		measurement = DefaultCollection
	}
	return &InfluxSampleStore{
		client:      client,
		writer:      client.WriteAPIBlocking(org, bucket),
		querier:     client.QueryAPI(org),
		bucket:      bucket,
		measurement: measurement,
	}
}

func (s *InfluxSampleStore) Append(ctx context.Context, sample domain.Sample) (string, error) {
	p, err := s.toPoint(sample)
	if err != nil {
		return "", err
	}
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return "", err
	}
	return sample.DeviceID + "@" + sample.TimestampServer, nil
}

func (s *InfluxSampleStore) AppendBatch(ctx context.Context, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(samples))
	for _, sample := range samples {
		p, err := s.toPoint(sample)
		if err != nil {
			return err
		}
		points = append(points, p)
	}
	return s.writer.WritePoint(ctx, points...)
}

func (s *InfluxSampleStore) RangeByTimestampServer(ctx context.Context, startInclusive string) ([]domain.Sample, error) {
	start, err := time.Parse(domain.TimestampLayout, startInclusive)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", startInclusive, err)
	}
	return s.query(ctx, s.rangeQuery(start))
}

func (s *InfluxSampleStore) LastInserted(ctx context.Context, n int) ([]domain.Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.query(ctx, s.lastQuery(n))
}

func (s *InfluxSampleStore) Close() error {
	s.client.Close()
	return nil
}

func (s *InfluxSampleStore) toPoint(sample domain.Sample) (*write.Point, error) {
	ts, err := time.Parse(domain.TimestampLayout, sample.TimestampServer)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp_server %q: %w", sample.TimestampServer, err)
	}

	p := influxdb2.NewPointWithMeasurement(s.measurement).
		AddTag("deviceId", sample.DeviceID).
		AddField("timestamp_server", sample.TimestampServer).
		SetTime(ts)

	readings := []struct {
		field string
		m     domain.Measure
	}{
		{"timestamp_mcu", sample.TimestampDevice},
		{"voltage", sample.Voltage},
		{"current", sample.Current},
		{"power", sample.Power},
		{"energy", sample.Energy},
		{"rssi", sample.RSSI},
	}
	for _, r := range readings {
		v := influxValue(r.m)
		if v == nil {
			continue
		}
		p.AddField(r.field, v)
	}
	return p, nil
}

// influxValue keeps every reading field a float so later writes never hit a
// field type conflict. Numeric strings are parsed; readings that are not
// numbers (null, bool, text) are dropped and read back as absent.
func influxValue(m domain.Measure) any {
	var (
		f   float64
		err error
	)
	switch v := m.Raw().(type) {
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return nil
	}
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return f
}

// earliestFluxTime is the lower bound of Flux's int64 nanosecond clock.
var earliestFluxTime = time.Unix(0, math.MinInt64).UTC()

func (s *InfluxSampleStore) rangeQuery(start time.Time) string {
	if start.Before(earliestFluxTime) {
		start = earliestFluxTime
	}
	return fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: %s)
		|> filter(fn: (r) => r._measurement == "%s")
		|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
		|> group()
		|> sort(columns: ["_time"])
	`, s.bucket, start.UTC().Format(time.RFC3339Nano), s.measurement)
}

func (s *InfluxSampleStore) lastQuery(n int) string {
	return fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: 0)
		|> filter(fn: (r) => r._measurement == "%s")
		|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
		|> group()
		|> sort(columns: ["_time"], desc: true)
		|> limit(n: %d)
	`, s.bucket, s.measurement, n)
}

func (s *InfluxSampleStore) query(ctx context.Context, flux string) ([]domain.Sample, error) {
	slog.Debug("influx query", "flux", flux)

	result, err := s.querier.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var out []domain.Sample
	for result.Next() {
		out = append(out, sampleFromValues(result.Record().Values()))
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("influx query: %w", result.Err())
	}
	return out, nil
}

func sampleFromValues(values map[string]interface{}) domain.Sample {
	measure := func(key string) domain.Measure {
		v, ok := values[key]
		if !ok || v == nil {
			return domain.Measure{}
		}
		return domain.NewMeasure(v)
	}
	deviceID, _ := values["deviceId"].(string)
	serverTS, _ := values["timestamp_server"].(string)

	return domain.Sample{
		DeviceID:        deviceID,
		TimestampDevice: measure("timestamp_mcu"),
		Voltage:         measure("voltage"),
		Current:         measure("current"),
		Power:           measure("power"),
		Energy:          measure("energy"),
		RSSI:            measure("rssi"),
		TimestampServer: serverTS,
	}
}

var _ domain.SampleStore = (*InfluxSampleStore)(nil)
