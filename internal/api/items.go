package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/observability"
)

// ListItems handles GET /items/.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	raws, err := c.list(ctx, ResourceItems)
	if err != nil {
		return nil, err
	}
	return parseAll(raws, parseItem)
}

// CreateItem handles POST /items/.
func (c *Client) CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	data, err := c.do(ctx, ResourceItems, observability.OpCreate, http.MethodPost, "/items/", draft)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	item, err := parseItem(json.RawMessage(data), 0)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem handles PATCH /items/{id}/ with the draft's fields.
func (c *Client) UpdateItem(ctx context.Context, id int64, draft model.ItemDraft) (*model.Item, error) {
	path := fmt.Sprintf("/items/%d/", id)
	data, err := c.do(ctx, ResourceItems, observability.OpUpdate, http.MethodPatch, path, draft)
	if err != nil {
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}
	item, err := parseItem(json.RawMessage(data), 0)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem handles DELETE /items/{id}/.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/items/%d/", id)
	if _, err := c.do(ctx, ResourceItems, observability.OpDelete, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	return nil
}
