package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventrack/internal/stats"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flashes := s.takeFlashes(w, r)
	page := PageData{Title: "Dashboard", Active: "dashboard", Flashes: flashes}

	items, itemsFP, err := fetch(ctx, "items", s.store.Items)
	if err != nil {
		slog.Error("failed to list items for dashboard", "error", err)
		page.LoadError = "Could not load inventory."
	}
	users, usersFP, err := fetch(ctx, "users", s.store.Users)
	if err != nil {
		slog.Error("failed to list users for dashboard", "error", err)
		page.LoadError = "Could not load inventory."
	}
	logs, logsFP, err := fetch(ctx, "logs", s.store.Logs)
	if err != nil {
		slog.Error("failed to list change log for dashboard", "error", err)
		page.LoadError = "Could not load inventory."
	}

	if page.LoadError == "" && len(flashes) == 0 {
		if notModified(w, r, etag(r, itemsFP, usersFP, logsFP)) {
			return
		}
	}

	s.templates.Render(w, http.StatusOK, "dashboard.html", &struct {
		PageData
		Summary stats.Summary
	}{
		PageData: page,
		Summary:  stats.Summarize(items, users, logs),
	})
}
