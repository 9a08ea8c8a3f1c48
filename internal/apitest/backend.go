// Package apitest provides an in-memory inventory backend for tests. It
// serves the same collection endpoints as the real backend, including the
// change-log entries it writes as a side effect of item mutations.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/model"
)

// Operator is the username recorded on change-log entries.
const Operator = "admin"

// Request is a request received by the backend.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	detail string
}

// Backend is an in-memory inventory backend.
type Backend struct {
	mu         sync.Mutex
	envelope   bool
	pageSize   int
	nextID     int64
	items      []model.Item
	categories []model.Category
	users      []model.User
	logs       []model.ChangeLogEntry
	failures   map[string]failure
	requests   []Request

	server *httptest.Server
}

// New starts a backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{failures: make(map[string]failure)}
	b.server = httptest.NewServer(b.handler())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// UseEnvelope wraps collection responses in {"results": [...]}. A positive
// pageSize splits them into pages linked by "next".
func (b *Backend) UseEnvelope(pageSize int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envelope = true
	b.pageSize = pageSize
}

// AddCategory seeds a category.
func (b *Backend) AddCategory(name string) model.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := model.Category{ID: b.id(), Name: name}
	b.categories = append(b.categories, c)
	return c
}

// AddItem seeds an item without writing a change-log entry. An empty price
// seeds an item without one.
func (b *Backend) AddItem(name string, quantity int, price string, category *int64) model.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC()
	item := model.Item{
		ID:          b.id(),
		Name:        name,
		Quantity:    quantity,
		Category:    category,
		DateAdded:   &now,
		LastUpdated: &now,
		ManagedBy:   Operator,
	}
	if price != "" {
		item.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	b.items = append(b.items, item)
	return item
}

// AddUser seeds a user.
func (b *Backend) AddUser(username, email string, staff bool) model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := model.User{ID: b.id(), Username: username, Email: email, IsStaff: staff}
	b.users = append(b.users, u)
	return u
}

// AddLog seeds a change-log entry as the newest one.
func (b *Backend) AddLog(itemName, action string, changed int) model.ChangeLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendLog(nil, itemName, action, changed, "")
}

// Fail makes the next request matching method and path fail with status. An
// empty detail sends a body without a "detail" field.
func (b *Backend) Fail(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Items returns the current items.
func (b *Backend) Items() []model.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Item(nil), b.items...)
}

// Users returns the current users.
func (b *Backend) Users() []model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.User(nil), b.users...)
}

// Logs returns the change log, newest first.
func (b *Backend) Logs() []model.ChangeLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ChangeLogEntry(nil), b.logs...)
}

func (b *Backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(b, w, r, b.itemsWithCategoryNames())
	})
	mux.HandleFunc("POST /items/{$}", b.createItem)
	mux.HandleFunc("PATCH /items/{id}/{$}", b.updateItem)
	mux.HandleFunc("DELETE /items/{id}/{$}", b.deleteItem)
	mux.HandleFunc("GET /categories/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(b, w, r, b.categories)
	})
	mux.HandleFunc("GET /users/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(b, w, r, b.users)
	})
	mux.HandleFunc("POST /users/{$}", b.createUser)
	mux.HandleFunc("GET /logs/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(b, w, r, b.logs)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		key := r.Method + " " + r.URL.Path
		f, fail := b.failures[key]
		if fail {
			delete(b.failures, key)
		}
		b.mu.Unlock()

		if fail {
			if f.detail != "" {
				writeJSON(w, f.status, map[string]string{"detail": f.detail})
			} else {
				writeJSON(w, f.status, map[string][]string{"non_field_errors": {"failed"}})
			}
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// itemsWithCategoryNames must be called without b.mu held.
func (b *Backend) itemsWithCategoryNames() []model.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Item, len(b.items))
	for i, item := range b.items {
		item.CategoryName = ""
		if item.Category != nil {
			for _, c := range b.categories {
				if c.ID == *item.Category {
					item.CategoryName = c.Name
				}
			}
		}
		out[i] = item
	}
	return out
}

func writeCollection[T any](b *Backend, w http.ResponseWriter, r *http.Request, elems []T) {
	b.mu.Lock()
	elems = append([]T{}, elems...)
	envelope, pageSize := b.envelope, b.pageSize
	b.mu.Unlock()

	if !envelope {
		writeJSON(w, http.StatusOK, elems)
		return
	}

	var next *string
	if pageSize > 0 {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		start := min((page-1)*pageSize, len(elems))
		end := min(start+pageSize, len(elems))
		if end < len(elems) {
			link := fmt.Sprintf("%s%s?page=%d", b.server.URL, r.URL.Path, page+1)
			next = &link
		}
		elems = elems[start:end]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(elems),
		"next":    next,
		"results": elems,
	})
}

type itemInput struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Quantity    *int          `json:"quantity"`
	Price       optionalPrice `json:"price"`
	Category    *int64        `json:"category"`
}

// optionalPrice tells an omitted price from an explicit null.
type optionalPrice struct {
	set   bool
	value decimal.NullDecimal
}

func (p *optionalPrice) UnmarshalJSON(data []byte) error {
	p.set = true
	return p.value.UnmarshalJSON(data)
}

func (b *Backend) createItem(w http.ResponseWriter, r *http.Request) {
	var in itemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
		return
	}
	if !in.Price.value.Valid {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"price": {"This field is required."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC()
	item := model.Item{
		ID:          b.id(),
		Name:        *in.Name,
		Price:       in.Price.value,
		Category:    in.Category,
		DateAdded:   &now,
		LastUpdated: &now,
		ManagedBy:   Operator,
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	b.items = append(b.items, item)
	b.appendLog(&item.ID, item.Name, model.ActionCreate, item.Quantity, "Initial creation")

	writeJSON(w, http.StatusCreated, item)
}

func (b *Backend) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	var in itemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	item := b.items[idx]
	old := item.Quantity
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.Price.set {
		item.Price = in.Price.value
	}
	if in.Category != nil {
		item.Category = in.Category
	}
	now := time.Now().UTC()
	item.LastUpdated = &now
	b.items[idx] = item

	switch {
	case item.Quantity > old:
		b.appendLog(&item.ID, item.Name, model.ActionRestock, item.Quantity-old, fmt.Sprintf("Quantity updated from %d to %d", old, item.Quantity))
	case item.Quantity < old:
		b.appendLog(&item.ID, item.Name, model.ActionSale, item.Quantity-old, fmt.Sprintf("Quantity updated from %d to %d", old, item.Quantity))
	default:
		b.appendLog(&item.ID, item.Name, model.ActionUpdate, 0, "Item details updated")
	}

	writeJSON(w, http.StatusOK, item)
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexOf(id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	item := b.items[idx]
	b.items = append(b.items[:idx], b.items[idx+1:]...)
	b.appendLog(nil, item.Name, model.ActionDelete, -item.Quantity, fmt.Sprintf("Item '%s' deleted", item.Name))

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) createUser(w http.ResponseWriter, r *http.Request) {
	var in model.UserDraft
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if in.Username == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Username == in.Username {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
			return
		}
	}
	u := model.User{ID: b.id(), Username: in.Username, Email: in.Email}
	b.users = append(b.users, u)

	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) indexOf(id int64) int {
	for i, item := range b.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// appendLog must be called with b.mu held.
func (b *Backend) appendLog(itemID *int64, itemName, action string, changed int, remarks string) model.ChangeLogEntry {
	entry := model.ChangeLogEntry{
		ID:              b.id(),
		Timestamp:       time.Now().UTC(),
		ItemID:          itemID,
		ItemName:        itemName,
		Action:          action,
		UserUsername:    Operator,
		QuantityChanged: changed,
		Remarks:         remarks,
	}
	b.logs = append([]model.ChangeLogEntry{entry}, b.logs...)
	return entry
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
