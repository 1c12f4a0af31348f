package consumer

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/richd0tcom/powrmet/internal/domain"
)

func TestLogConsumerProcess(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	samples := []domain.Sample{{
		DeviceID:        "node-1",
		Energy:          domain.Num(12.5),
		Power:           domain.Num(100),
		TimestampServer: "2026-10-19T12:00:00.000Z",
	}}
	if err := NewLogConsumer("default").Process(context.Background(), samples); err != nil {
		t.Fatalf("process: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"size=1", "deviceId=node-1", "energy=12.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}
