package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventrack/internal/form"
	"github.com/erazemk/inventrack/internal/listview"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/session"
)

// UsersPage handles GET /users. ?new=1 opens the create-user dialog.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	f := &form.UserForm{}
	if r.URL.Query().Get("new") != "" {
		f.Open()
	}
	s.renderUsers(w, r, http.StatusOK, s.takeFlashes(w, r), f)
}

// UserCreateSubmit handles POST /users.
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	n := &notifier{}
	f := &form.UserForm{API: s.backend, Cache: s.cache, Notify: n}
	f.Open()

	if err := r.ParseForm(); err != nil {
		n.NotifyError("Invalid form submission.")
		s.renderUsers(w, r, http.StatusBadRequest, n.flashes, f)
		return
	}
	f.SetUsername(r.PostFormValue("username"))
	f.SetEmail(r.PostFormValue("email"))
	f.SetPassword(r.PostFormValue("password"))

	if err := f.Save(r.Context()); err != nil {
		status := saveStatus(err)
		if status == http.StatusBadGateway {
			slog.Warn("failed to create user", "username", f.Draft().Username, "error", err)
		}
		s.renderUsers(w, r, status, n.flashes, f)
		return
	}

	slog.Info("user created", "username", r.PostFormValue("username"))
	s.redirect(w, r, "/users", n.flashes)
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, flashes []session.Flash, f *form.UserForm) {
	page := PageData{Title: "Users", Active: "users", Flashes: flashes}
	search := r.URL.Query().Get("q")

	users, fp, err := fetch(r.Context(), "users", s.store.Users)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		page.LoadError = "Could not load users."
	}

	if status == http.StatusOK && page.LoadError == "" && len(flashes) == 0 {
		if notModified(w, r, etag(r, fp)) {
			return
		}
	}

	draft := f.Draft()
	// The password is never sent back to the browser.
	draft.Password = ""

	s.templates.Render(w, status, "users.html", &struct {
		PageData
		Search     string
		Users      []model.User
		Total      int
		DialogOpen bool
		Draft      model.UserDraft
	}{
		PageData:   page,
		Search:     search,
		Users:      listview.FilterUsers(users, search),
		Total:      len(users),
		DialogOpen: f.IsOpen(),
		Draft:      draft,
	})
}
