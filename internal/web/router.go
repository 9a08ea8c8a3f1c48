package web

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/language"

	"github.com/erazemk/inventrack/internal/cache"
	"github.com/erazemk/inventrack/internal/form"
	"github.com/erazemk/inventrack/internal/observability"
	"github.com/erazemk/inventrack/internal/session"
	"github.com/erazemk/inventrack/internal/store"
	webembed "github.com/erazemk/inventrack/web"
)

// Backend is the part of the backend client used for mutations.
// *api.Client implements it.
type Backend interface {
	form.ItemAPI
	form.UserAPI
}

// Config holds the dependencies of the page handlers.
type Config struct {
	Backend       Backend
	Store         *store.Store
	Cache         *cache.Cache
	Locale        language.Tag
	Observability *observability.Config
}

// Server holds all dependencies for page handlers.
type Server struct {
	backend     Backend
	store       *store.Store
	cache       *cache.Cache
	locale      language.Tag
	templates   *Templates
	flashSecret []byte
}

// NewRouter creates the dashboard router with all page routes registered.
func NewRouter(cfg Config) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	secret, err := session.NewSecret()
	if err != nil {
		return nil, err
	}
	if cfg.Backend == nil || cfg.Store == nil || cfg.Cache == nil {
		return nil, fmt.Errorf("backend, store and cache are required")
	}

	s := &Server{
		backend:     cfg.Backend,
		store:       cfg.Store,
		cache:       cfg.Cache,
		locale:      cfg.Locale,
		templates:   templates,
		flashSecret: secret,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.Dashboard)

	mux.HandleFunc("GET /inventory", s.InventoryPage)
	mux.HandleFunc("POST /inventory/items", s.ItemCreateSubmit)
	mux.HandleFunc("POST /inventory/items/{id}", s.ItemUpdateSubmit)
	mux.HandleFunc("POST /inventory/items/{id}/delete", s.ItemDeleteSubmit)

	mux.HandleFunc("GET /users", s.UsersPage)
	mux.HandleFunc("POST /users", s.UserCreateSubmit)

	mux.HandleFunc("GET /history", s.HistoryPage)

	timing := observability.ServerTimingMiddleware(cfg.Observability)
	return LoggingMiddleware(timing(mux)), nil
}

// fetch runs load under a Server-Timing metric named fetch.<name>.
func fetch[T any](ctx context.Context, name string, load func(context.Context) ([]T, uint64, error)) ([]T, uint64, error) {
	m := observability.StartServerTiming(ctx, "fetch."+name)
	defer m.Stop()
	return load(ctx)
}
