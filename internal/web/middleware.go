package web

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/erazemk/inventrack/internal/form"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/session"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

const flashCookie = "flash"

// notifier collects form notifications for the current request.
type notifier struct {
	flashes []session.Flash
}

func (n *notifier) NotifySuccess(msg string) {
	n.flashes = append(n.flashes, session.Flash{Kind: session.KindSuccess, Message: msg})
}

func (n *notifier) NotifyError(msg string) {
	n.flashes = append(n.flashes, session.Flash{Kind: session.KindError, Message: msg})
}

// redirect sends a 303 to target, carrying flashes to the next page.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string, flashes []session.Flash) {
	if len(flashes) > 0 {
		token, err := session.Sign(s.flashSecret, flashes)
		if err != nil {
			slog.Error("failed to sign flash", "error", err)
		} else {
			http.SetCookie(w, &http.Cookie{
				Name:     flashCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(session.FlashExpiry / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// takeFlashes returns the flashes carried by the request and clears the
// cookie so they are shown once.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []session.Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	flashes, err := session.Parse(s.flashSecret, cookie.Value)
	if err != nil {
		slog.Warn("dropping invalid flash", "error", err)
		return nil
	}
	return flashes
}

// saveStatus maps a failed form save to the status of the re-rendered page.
// Forms live for one request, so ErrPending is advisory here: it only shows
// up if a form is shared across requests.
func saveStatus(err error) int {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrPending):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// etag derives a validator for a page from its URL and the fingerprints of
// the collections it was rendered from.
func etag(r *http.Request, fingerprints ...uint64) string {
	d := xxhash.New()
	d.WriteString(r.URL.Path)
	d.WriteString("?")
	d.WriteString(r.URL.RawQuery)
	var buf [8]byte
	for _, fp := range fingerprints {
		binary.LittleEndian.PutUint64(buf[:], fp)
		d.Write(buf[:])
	}
	return fmt.Sprintf(`"%016x"`, d.Sum64())
}

// notModified sets the ETag header and answers 304 when the client already
// has this version of the page.
func notModified(w http.ResponseWriter, r *http.Request, tag string) bool {
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == tag || candidate == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}
