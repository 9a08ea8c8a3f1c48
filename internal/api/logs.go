package api

import (
	"context"

	"github.com/erazemk/inventrack/internal/model"
)

// ListLogs handles GET /logs/. Entries keep the backend's order, which is
// newest first.
func (c *Client) ListLogs(ctx context.Context) ([]model.ChangeLogEntry, error) {
	raws, err := c.list(ctx, ResourceLogs)
	if err != nil {
		return nil, err
	}
	return parseAll(raws, parseLogEntry)
}
