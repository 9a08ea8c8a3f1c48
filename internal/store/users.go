package store

import (
	"context"
	"fmt"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/model"
)

// Users returns every user.
func (s *Store) Users(ctx context.Context) ([]model.User, uint64, error) {
	users, fp, err := cache.Load(ctx, s.Cache, KeyUsers, s.Client.ListUsers)
	if err != nil {
		return nil, 0, fmt.Errorf("loading users: %w", err)
	}
	return users, fp, nil
}
