package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/richd0tcom/powrmet/internal/db"
	"github.com/richd0tcom/powrmet/internal/domain"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func at(offset time.Duration) string {
	return domain.FormatTimestamp(testNow.Add(offset))
}

func sample(device string, ts string, voltage, current, power, energy float64) domain.Sample {
	return domain.Sample{
		DeviceID:        device,
		TimestampDevice: domain.Num(1),
		Voltage:         domain.Num(voltage),
		Current:         domain.Num(current),
		Power:           domain.Num(power),
		Energy:          domain.Num(energy),
		RSSI:            domain.Num(-70),
		TimestampServer: ts,
	}
}

func mustRequest(t *testing.T, body string) domain.IngestRequest {
	t.Helper()
	var req domain.IngestRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	return req
}

func approx(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, domain.Sample) (string, error) { return "", f.err }
func (f failingStore) AppendBatch(context.Context, []domain.Sample) error    { return f.err }
func (f failingStore) RangeByTimestampServer(context.Context, string) ([]domain.Sample, error) {
	return nil, f.err
}
func (f failingStore) LastInserted(context.Context, int) ([]domain.Sample, error) { return nil, f.err }
func (f failingStore) Close() error                                                 { return nil }

func seed(t *testing.T, samples ...domain.Sample) *db.MemorySampleStore {
	t.Helper()
	store := db.NewMemorySampleStore()
	if err := store.AppendBatch(context.Background(), samples); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestServiceIngestStoresSample(t *testing.T) {
	store := db.NewMemorySampleStore()
	svc := NewService(store, fixedClock)

	req := mustRequest(t, `{"deviceId":"node-1","timestamp":42,"voltage":230.1,"current":0.5,"power":115,"energy":12,"rssi":-80}`)
	stored, key, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if key != "1" {
		t.Fatalf("expected key 1, got %q", key)
	}
	if stored.TimestampServer != "2026-10-19T12:00:00.000Z" {
		t.Fatalf("unexpected server timestamp %s", stored.TimestampServer)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored sample, got %d", store.Len())
	}
}

func TestServiceIngestStoreFailure(t *testing.T) {
	svc := NewService(failingStore{err: errors.New("boom")}, fixedClock)

	req := mustRequest(t, `{"deviceId":"node-1","timestamp":1,"voltage":1,"current":1,"power":1,"energy":1,"rssi":1}`)
	_, _, err := svc.Ingest(context.Background(), req)
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if storeErr.Op != "append" {
		t.Fatalf("expected op append, got %s", storeErr.Op)
	}
}

func TestServiceIngestInvalidDoesNotTouchStore(t *testing.T) {
	store := db.NewMemorySampleStore()
	svc := NewService(store, fixedClock)

	_, _, err := svc.Ingest(context.Background(), mustRequest(t, `{"deviceId":"node-1"}`))
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("store must stay empty, has %d", store.Len())
	}
}

func TestServiceReadsAreIdempotent(t *testing.T) {
	store := seed(t,
		sample("node-1", at(-3*time.Hour), 230, 1, 230, 100),
		sample("node-2", at(-2*time.Hour), 231, 2, 462, 5),
		sample("node-1", at(-1*time.Hour), 229, 1.5, 343.5, 140),
	)
	svc := NewService(store, fixedClock)
	ctx := context.Background()

	marshal := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(b)
	}

	h1, err := svc.History(ctx, "node-1", 24)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	h2, _ := svc.History(ctx, "node-1", 24)
	if marshal(h1) != marshal(h2) {
		t.Fatalf("history not idempotent:\n%s\n%s", marshal(h1), marshal(h2))
	}

	s1, err := svc.Summary(ctx, "node-1", 24)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	s2, _ := svc.Summary(ctx, "node-1", 24)
	if marshal(s1) != marshal(s2) {
		t.Fatalf("summary not idempotent:\n%s\n%s", marshal(s1), marshal(s2))
	}
	if s1.DataPoints != 2 || !approx(s1.TotalEnergyWh, 40) {
		t.Fatalf("unexpected summary %+v", s1)
	}
}

func TestServiceSummaryPropagatesStoreError(t *testing.T) {
	svc := NewService(failingStore{err: errors.New("down")}, fixedClock)
	_, err := svc.Summary(context.Background(), "node-1", 24)
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
