package engine

import (
	"context"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// LatestLookup returns the last record appended to the store, whatever device
// sent it.
type LatestLookup struct {
	store domain.SampleStore
}

func NewLatestLookup(store domain.SampleStore) *LatestLookup {
	return &LatestLookup{store: store}
}

func (l *LatestLookup) Latest(ctx context.Context) (domain.Sample, error) {
	last, err := l.store.LastInserted(ctx, 1)
	if err != nil {
		return domain.Sample{}, &domain.StoreError{Op: "last", Err: err}
	}
	if len(last) == 0 {
		return domain.Sample{}, &domain.NotFoundError{What: "sample"}
	}
	return last[0], nil
}
