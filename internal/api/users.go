package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/observability"
)

// ListUsers handles GET /users/.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	raws, err := c.list(ctx, ResourceUsers)
	if err != nil {
		return nil, err
	}
	return parseAll(raws, parseUser)
}

// CreateUser handles POST /users/.
func (c *Client) CreateUser(ctx context.Context, draft model.UserDraft) (*model.User, error) {
	data, err := c.do(ctx, ResourceUsers, observability.OpCreate, http.MethodPost, "/users/", draft)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	user, err := parseUser(json.RawMessage(data), 0)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
