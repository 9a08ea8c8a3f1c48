package api

import (
	"context"

	"github.com/erazemk/inventrack/internal/model"
)

// ListCategories handles GET /categories/.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	raws, err := c.list(ctx, ResourceCategories)
	if err != nil {
		return nil, err
	}
	return parseAll(raws, parseCategory)
}
