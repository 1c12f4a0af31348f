package consumer

import (
	"context"
	"log/slog"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// LogConsumer reports every stored batch to the log.
type LogConsumer struct {
	name string
}

func NewLogConsumer(name string) *LogConsumer {
	return &LogConsumer{name: name}
}

func (l *LogConsumer) Process(ctx context.Context, samples []domain.Sample) error {
	slog.InfoContext(ctx, "stored batch", "consumer", l.name, "size", len(samples))
	for _, s := range samples {
		slog.DebugContext(ctx, "stored sample",
			"consumer", l.name,
			"deviceId", s.DeviceID,
			"energy", s.Energy.Text(),
			"power", s.Power.Text(),
			"timestamp_server", s.TimestampServer)
	}
	return nil
}

var _ domain.SampleConsumer = (*LogConsumer)(nil)
