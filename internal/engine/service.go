package engine

import (
	"context"
	"sync"
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// Service wires the four engine components to one store. It holds no state
// between calls.
//
// Writes stamp timestamp_server and append under one lock, so within a process
// server timestamps never go backwards in insertion order.
type Service struct {
	writeMu    sync.Mutex
	store      domain.SampleStore
	validator  *IngestValidator
	query      *RangeQueryEngine
	aggregator *SummaryAggregator
	latest     *LatestLookup
}

// NewService uses now for server timestamps and window cutoffs; nil means
// time.Now.
func NewService(store domain.SampleStore, now func() time.Time) *Service {
	return &Service{
		store:      store,
		validator:  NewIngestValidator(now),
		query:      NewRangeQueryEngine(store, now),
		aggregator: NewSummaryAggregator(),
		latest:     NewLatestLookup(store),
	}
}

func (s *Service) Validator() *IngestValidator { return s.validator }

// Ingest validates req and appends it. It returns the stored sample and the
// store's insertion key.
func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.Sample, string, error) {
	sample, err := s.validator.Check(req)
	if err != nil {
		return domain.Sample{}, "", err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sample.TimestampServer = s.validator.Stamp()
	key, err := s.store.Append(ctx, sample)
	if err != nil {
		return sample, "", &domain.StoreError{Op: "append", Err: err}
	}
	return sample, key, nil
}

// IngestBatch stamps checked samples with the write time, in place, and
// appends them in order.
func (s *Service) IngestBatch(ctx context.Context, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ts := s.validator.Stamp()
	for i := range samples {
		samples[i].TimestampServer = ts
	}
	if err := s.store.AppendBatch(ctx, samples); err != nil {
		return &domain.StoreError{Op: "append_batch", Err: err}
	}
	return nil
}

func (s *Service) Latest(ctx context.Context) (domain.Sample, error) {
	return s.latest.Latest(ctx)
}

func (s *Service) History(ctx context.Context, deviceID string, hours float64) ([]domain.Sample, error) {
	return s.query.History(ctx, deviceID, hours)
}

func (s *Service) Summary(ctx context.Context, deviceID string, hours float64) (domain.Summary, error) {
	samples, err := s.query.History(ctx, deviceID, hours)
	if err != nil {
		return domain.Summary{}, err
	}
	return s.aggregator.Summarize(deviceID, hours, samples), nil
}
