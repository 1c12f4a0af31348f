package db

import (
	"context"
	"strconv"
	"sync"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// MemorySampleStore keeps samples in process memory in insertion order.
// Used for STORE_DRIVER=memory and in tests.
type MemorySampleStore struct {
	mu      sync.RWMutex
	samples []domain.Sample
}

func NewMemorySampleStore() *MemorySampleStore {
	return &MemorySampleStore{}
}

func (m *MemorySampleStore) Append(ctx context.Context, s domain.Sample) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
	return strconv.Itoa(len(m.samples)), nil
}

func (m *MemorySampleStore) AppendBatch(ctx context.Context, samples []domain.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, samples...)
	return nil
}

func (m *MemorySampleStore) RangeByTimestampServer(ctx context.Context, startInclusive string) ([]domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Sample
	for _, s := range m.samples {
		if s.TimestampServer >= startInclusive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemorySampleStore) LastInserted(ctx context.Context, n int) ([]domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || len(m.samples) == 0 {
		return nil, nil
	}
	if n > len(m.samples) {
		n = len(m.samples)
	}
	out := make([]domain.Sample, 0, n)
	for i := len(m.samples) - 1; i >= len(m.samples)-n; i-- {
		out = append(out, m.samples[i])
	}
	return out, nil
}

// Len reports how many samples are stored.
func (m *MemorySampleStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples)
}

func (m *MemorySampleStore) Close() error { return nil }

var _ domain.SampleStore = (*MemorySampleStore)(nil)
