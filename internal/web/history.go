package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventrack/internal/listview"
	"github.com/erazemk/inventrack/internal/model"
)

// HistoryPage handles GET /history with an optional ?action= filter.
func (s *Server) HistoryPage(w http.ResponseWriter, r *http.Request) {
	flashes := s.takeFlashes(w, r)
	page := PageData{Title: "History", Active: "history", Flashes: flashes}
	action := r.URL.Query().Get("action")

	logs, fp, err := fetch(r.Context(), "logs", s.store.Logs)
	if err != nil {
		slog.Error("failed to list change log", "error", err)
		page.LoadError = "Could not load history."
	}

	if page.LoadError == "" && len(flashes) == 0 {
		if notModified(w, r, etag(r, fp)) {
			return
		}
	}

	s.templates.Render(w, http.StatusOK, "history.html", &struct {
		PageData
		Action  string
		Actions []string
		Entries []model.ChangeLogEntry
	}{
		PageData: page,
		Action:   action,
		Actions:  model.Actions,
		Entries:  listview.FilterLogs(logs, action),
	})
}
