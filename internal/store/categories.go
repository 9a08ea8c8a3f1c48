package store

import (
	"context"
	"fmt"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/model"
)

// Categories returns every category.
func (s *Store) Categories(ctx context.Context) ([]model.Category, uint64, error) {
	categories, fp, err := cache.Load(ctx, s.Cache, KeyCategories, s.Client.ListCategories)
	if err != nil {
		return nil, 0, fmt.Errorf("loading categories: %w", err)
	}
	return categories, fp, nil
}
