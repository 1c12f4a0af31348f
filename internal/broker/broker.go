package broker

import "context"

// MessageQueue carries raw ingest payloads from gateways to the worker.
type MessageQueue interface {
	Publish(ctx context.Context, data []byte) error
	// Consume calls handler for every message until ctx is done.
	Consume(ctx context.Context, handler func([]byte) error) error
	Close() error
}
