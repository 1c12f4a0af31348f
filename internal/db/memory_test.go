package db

import (
	"context"
	"testing"
)

func TestMemoryStoreRangeAndLast(t *testing.T) {
	store := NewMemorySampleStore()
	ctx := context.Background()

	for _, s := range []struct{ dev, ts string }{
		{"node-1", "2026-10-19T10:00:00.000Z"},
		{"node-2", "2026-10-19T08:00:00.000Z"},
		{"node-1", "2026-10-19T11:00:00.000Z"},
	} {
		if _, err := store.Append(ctx, testSample(s.dev, s.ts, 1)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.RangeByTimestampServer(ctx, "2026-10-19T09:00:00.000Z")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 || got[0].TimestampServer != "2026-10-19T10:00:00.000Z" {
		t.Fatalf("unexpected range result %+v", got)
	}

	last, err := store.LastInserted(ctx, 2)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if len(last) != 2 || last[0].TimestampServer != "2026-10-19T11:00:00.000Z" || last[1].DeviceID != "node-2" {
		t.Fatalf("expected newest first, got %+v", last)
	}

	if last, _ := store.LastInserted(ctx, 10); len(last) != 3 {
		t.Fatalf("expected all 3 samples, got %d", len(last))
	}
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemorySampleStore().Append(ctx, testSample("node-1", "x", 1)); err == nil {
		t.Fatalf("expected cancelled context to fail the append")
	}
}
