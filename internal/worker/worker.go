package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/richd0tcom/powrmet/internal/broker"
	"github.com/richd0tcom/powrmet/internal/domain"
	"github.com/richd0tcom/powrmet/internal/engine"
	"github.com/richd0tcom/powrmet/internal/metrics"
)

const flushInterval = 5 * time.Second

// Worker drains a message queue, validates every sample it carries and
// appends the valid ones in batches.
type Worker struct {
	svc         *engine.Service
	consumer    domain.SampleConsumer
	obs         *metrics.PromObs
	source      string
	workerCount int
	batchSize   int
}

func NewWorker(svc *engine.Service, consumer domain.SampleConsumer, obs *metrics.PromObs, source string, workerCount, batchSize int) *Worker {
	return &Worker{
		svc:         svc,
		consumer:    consumer,
		obs:         obs,
		source:      source,
		workerCount: workerCount,
		batchSize:   batchSize,
	}
}

// Start blocks until ctx is cancelled or the queue fails. Pending batches are
// flushed before it returns.
func (w *Worker) Start(ctx context.Context, mq broker.MessageQueue) error {
	msgs := make(chan []byte, w.batchSize)

	var wg sync.WaitGroup
	for i := range w.workerCount {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.worker(ctx, workerID, msgs)
		}(i)
	}

	// MQTT callbacks can still arrive after Consume returns.
	var (
		mu     sync.RWMutex
		closed bool
	)
	err := mq.Consume(ctx, func(data []byte) error {
		mu.RLock()
		defer mu.RUnlock()
		if closed {
			return context.Canceled
		}
		select {
		case msgs <- data:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	mu.Lock()
	closed = true
	close(msgs)
	mu.Unlock()
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) worker(ctx context.Context, workerID int, msgs <-chan []byte) {
	slog.Info("worker started", "worker", workerID, "source", w.source)
	defer slog.Info("worker stopped", "worker", workerID, "source", w.source)

	batch := make([]domain.Sample, 0, w.batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-msgs:
			if !ok {
				if len(batch) > 0 {
					w.processBatch(ctx, batch)
				}
				return
			}
			batch = append(batch, w.decode(data)...)
			if len(batch) >= w.batchSize {
				w.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// decode accepts either a single ingest object or {"data": [...]}. Samples
// get their timestamp_server when the batch is written.
func (w *Worker) decode(data []byte) []domain.Sample {
	reqs, err := parsePayload(data)
	if err != nil {
		w.obs.IncRejected(w.source)
		slog.Warn("dropping undecodable message", "source", w.source, "error", err)
		return nil
	}

	out := make([]domain.Sample, 0, len(reqs))
	for _, req := range reqs {
		s, err := w.svc.Validator().Check(req)
		if err != nil {
			w.obs.IncRejected(w.source)
			slog.Warn("dropping invalid sample", "source", w.source, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

func parsePayload(data []byte) ([]domain.IngestRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["data"]; ok {
		var bulk domain.BulkIngestRequest
		if err := json.Unmarshal(trimmed, &bulk); err != nil {
			return nil, err
		}
		return bulk.Data, nil
	}

	var single domain.IngestRequest
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []domain.IngestRequest{single}, nil
}

func (w *Worker) processBatch(ctx context.Context, batch []domain.Sample) {
	start := time.Now()

	if ctx.Err() != nil {
		// shutting down; the batch still gets written
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = flushCtx
	}

	if err := w.svc.IngestBatch(ctx, batch); err != nil {
		w.obs.IncStoreError("append_batch")
		slog.Error("failed to store batch", "source", w.source, "size", len(batch), "error", err)
		return
	}
	w.obs.IncIngested(w.source, len(batch))

	if err := w.consumer.Process(ctx, batch); err != nil {
		slog.Error("failed to process batch in consumer", "source", w.source, "error", err)
		return
	}

	slog.Info("processed batch", "source", w.source, "size", len(batch), "duration", time.Since(start))
}
