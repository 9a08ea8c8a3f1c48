// Package store reads the backend collections through the cache.
package store

import (
	"context"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/model"
)

// Cache keys, one per backend collection.
const (
	KeyItems      = "items"
	KeyCategories = "categories"
	KeyUsers      = "users"
	KeyLogs       = "logs"
)

// Client lists the backend collections. *api.Client implements it.
type Client interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListLogs(ctx context.Context) ([]model.ChangeLogEntry, error)
}

// Store serves collections from Cache, fetching them with Client on a miss.
// Every method also returns the fingerprint of the cached payload.
type Store struct {
	Client Client
	Cache  *cache.Cache
}

// New creates a store.
func New(client Client, c *cache.Cache) *Store {
	return &Store{Client: client, Cache: c}
}
