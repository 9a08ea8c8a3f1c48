package store

import (
	"context"
	"fmt"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/model"
)

// Logs returns the change log, newest first.
func (s *Store) Logs(ctx context.Context) ([]model.ChangeLogEntry, uint64, error) {
	logs, fp, err := cache.Load(ctx, s.Cache, KeyLogs, s.Client.ListLogs)
	if err != nil {
		return nil, 0, fmt.Errorf("loading change log: %w", err)
	}
	return logs, fp, nil
}
