package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/listview"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/session"
	webembed "github.com/erazemk/inventrack/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"actionLabel": model.ActionLabel,
		"money": func(d decimal.Decimal) string {
			return "$" + d.StringFixed(2)
		},
		"price": func(p decimal.NullDecimal) string {
			if !p.Valid {
				return "-"
			}
			return "$" + p.Decimal.StringFixed(2)
		},
		"priceValue": func(p decimal.NullDecimal) string {
			if !p.Valid {
				return ""
			}
			return p.Decimal.StringFixed(2)
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"signed": func(n int) string {
			if n > 0 {
				return "+" + strconv.Itoa(n)
			}
			return strconv.Itoa(n)
		},
		"idString": func(id *int64) string {
			if id == nil {
				return ""
			}
			return strconv.FormatInt(*id, 10)
		},
		"sortLink": func(c listview.Controls, key string) string {
			return "/inventory?" + c.Toggle(listview.SortKey(key)).Encode()
		},
		"inventoryLink": inventoryURL,
		"editLink": func(c listview.Controls, edit any) string {
			q := c.Values()
			q.Set("edit", fmt.Sprint(edit))
			return "/inventory?" + q.Encode()
		},
		"deleteAction": func(c listview.Controls, id int64) string {
			action := fmt.Sprintf("/inventory/items/%d/delete", id)
			if q := c.Encode(); q != "" {
				action += "?" + q
			}
			return action
		},
		"sortMark": func(c listview.Controls, key string) string {
			if string(c.SortKey) != key {
				return ""
			}
			if c.Ascending {
				return "▲"
			}
			return "▼"
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"dashboard.html",
		"inventory.html",
		"users.html",
		"history.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and status. The page is
// rendered fully before anything is written.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Active  string
	Flashes []session.Flash
	// LoadError is shown instead of the page content when a collection
	// could not be fetched.
	LoadError string
}
