package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
)

func TestLatestEmptyStore(t *testing.T) {
	_, err := NewLatestLookup(seed(t)).Latest(context.Background())
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestLatestIgnoresDevice(t *testing.T) {
	store := seed(t,
		sample("node-1", at(-1*time.Minute), 230, 1, 230, 10),
		sample("node-2", at(-2*time.Minute), 231, 1, 231, 20),
	)

	got, err := NewLatestLookup(store).Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	// last inserted wins even though its timestamp is older
	if got.DeviceID != "node-2" {
		t.Fatalf("expected node-2, got %s", got.DeviceID)
	}
}

func TestLatestStoreError(t *testing.T) {
	_, err := NewLatestLookup(failingStore{err: errors.New("timeout")}).Latest(context.Background())
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "last" {
		t.Fatalf("expected StoreError(last), got %v", err)
	}
}
