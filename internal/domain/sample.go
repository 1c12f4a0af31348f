package domain

import (
	"context"
	"time"
)

// TimestampLayout is the ISO-8601 form used for timestamp_server. It is fixed
// width, so string order equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Sample is one stored telemetry reading. The JSON names are the storage
// contract shared by every adapter.
type Sample struct {
	DeviceID        string  `json:"deviceId"`
	TimestampDevice Measure `json:"timestamp_mcu"`
	Voltage         Measure `json:"voltage"`
	Current         Measure `json:"current"`
	Power           Measure `json:"power"`
	Energy          Measure `json:"energy"`
	RSSI            Measure `json:"rssi"`
	TimestampServer string  `json:"timestamp_server"`
}

// IngestRequest is the body a device posts. Every field is a Measure so that
// absence can be told apart from a zero value.
type IngestRequest struct {
	DeviceID  Measure `json:"deviceId"`
	Timestamp Measure `json:"timestamp"`
	Voltage   Measure `json:"voltage"`
	Current   Measure `json:"current"`
	Power     Measure `json:"power"`
	Energy    Measure `json:"energy"`
	RSSI      Measure `json:"rssi"`
}

type BulkIngestRequest struct {
	Data []IngestRequest `json:"data"`
}

// SampleStore is the append-only persistence the engine runs against.
// Implementations range-filter on timestamp_server only; device filtering is
// done by the caller.
type SampleStore interface {
	// Append stores s and returns an opaque insertion key.
	Append(ctx context.Context, s Sample) (string, error)
	// AppendBatch stores samples in the given order.
	AppendBatch(ctx context.Context, samples []Sample) error
	// RangeByTimestampServer returns every record with
	// timestamp_server >= startInclusive, in store order.
	RangeByTimestampServer(ctx context.Context, startInclusive string) ([]Sample, error)
	// LastInserted returns the n most recently appended records, newest first.
	LastInserted(ctx context.Context, n int) ([]Sample, error)
	Close() error
}

// SampleConsumer is notified after a batch reached the store.
type SampleConsumer interface {
	Process(ctx context.Context, samples []Sample) error
}
