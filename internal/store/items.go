package store

import (
	"context"
	"fmt"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/model"
)

// Items returns every item in backend order.
func (s *Store) Items(ctx context.Context) ([]model.Item, uint64, error) {
	items, fp, err := cache.Load(ctx, s.Cache, KeyItems, s.Client.ListItems)
	if err != nil {
		return nil, 0, fmt.Errorf("loading items: %w", err)
	}
	return items, fp, nil
}
