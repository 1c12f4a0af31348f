package engine

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
)

const DefaultWindowHours = 24.0

// ParseHours reads the optional hours query parameter. Empty or non-numeric
// input falls back to DefaultWindowHours; negative input is rejected.
func ParseHours(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWindowHours, nil
	}
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return DefaultWindowHours, nil
	}
	if h < 0 {
		return 0, &domain.ValidationError{Field: "hours", Reason: "hours must be a non-negative number"}
	}
	return h, nil
}

// Cutoff returns now minus the window. Windows longer than time.Duration can
// express reach back to the zero time.
func Cutoff(now time.Time, hours float64) time.Time {
	span := hours * float64(time.Hour)
	if span >= math.MaxInt64 {
		return time.Time{}
	}
	return now.Add(-time.Duration(span))
}

// RangeQueryEngine answers "samples of device X in the last N hours".
//
// The store can only range-filter on timestamp_server, so the device filter
// is applied here after the scan.
type RangeQueryEngine struct {
	store domain.SampleStore
	now   func() time.Time
}

func NewRangeQueryEngine(store domain.SampleStore, now func() time.Time) *RangeQueryEngine {
	if now == nil {
		now = time.Now
	}
	return &RangeQueryEngine{store: store, now: now}
}

// History returns the matching samples in the order the store produced them.
// The result is never nil.
func (e *RangeQueryEngine) History(ctx context.Context, deviceID string, hours float64) ([]domain.Sample, error) {
	if deviceID == "" {
		return nil, &domain.ValidationError{Field: "deviceId", Reason: "deviceId is required"}
	}
	if hours < 0 {
		return nil, &domain.ValidationError{Field: "hours", Reason: "hours must be a non-negative number"}
	}

	start := domain.FormatTimestamp(Cutoff(e.now(), hours))
	all, err := e.store.RangeByTimestampServer(ctx, start)
	if err != nil {
		return nil, &domain.StoreError{Op: "range", Err: err}
	}

	out := make([]domain.Sample, 0, len(all))
	for _, s := range all {
		if s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	return out, nil
}
