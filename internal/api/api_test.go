package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/apitest"
	"github.com/erazemk/inventrack/internal/model"
)

func setupTestClient(t *testing.T) (*Client, *apitest.Backend) {
	t.Helper()
	backend := apitest.New(t)
	client, err := New(backend.URL()+"/", WithToken("Token", "secret"))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client, backend
}

func TestNewRejectsNonHTTPURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "example.com/api", "://bad"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q): expected error", raw)
		}
	}
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	client, backend := setupTestClient(t)
	if client.BaseURL() != backend.URL() {
		t.Errorf("expected %q, got %q", backend.URL(), client.BaseURL())
	}
}

func TestListItemsArray(t *testing.T) {
	client, backend := setupTestClient(t)
	tools := backend.AddCategory("Tools")
	backend.AddItem("Hammer", 3, "12.50", &tools.ID)
	backend.AddItem("Tape", 40, "1.99", nil)

	items, err := client.ListItems(context.Background())
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Hammer" || items[0].CategoryName != "Tools" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if !items[0].Price.Valid || !items[0].Price.Decimal.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("expected price 12.50, got %v", items[0].Price)
	}
	if items[1].Category != nil {
		t.Errorf("expected no category, got %d", *items[1].Category)
	}
	if items[0].ManagedBy != apitest.Operator {
		t.Errorf("expected managed by %q, got %q", apitest.Operator, items[0].ManagedBy)
	}
}

func TestListFollowsEnvelopePages(t *testing.T) {
	client, backend := setupTestClient(t)
	backend.UseEnvelope(2)
	for i := range 5 {
		backend.AddItem(fmt.Sprintf("Item %d", i), i, "1", nil)
	}

	items, err := client.ListItems(context.Background())
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	for i, item := range items {
		if want := fmt.Sprintf("Item %d", i); item.Name != want {
			t.Errorf("item %d: expected %q, got %q", i, want, item.Name)
		}
	}
	if n := backend.Count(http.MethodGet, "/items/"); n != 3 {
		t.Errorf("expected 3 page requests, got %d", n)
	}
}

func TestListEnvelopeWithoutPagination(t *testing.T) {
	client, backend := setupTestClient(t)
	backend.UseEnvelope(0)
	backend.AddCategory("Tools")
	backend.AddCategory("Paint")

	categories, err := client.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	if len(categories) != 2 || categories[1].Name != "Paint" {
		t.Errorf("unexpected categories: %+v", categories)
	}
}

func TestListStopsAfterMaxPages(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": [], "next": %q}`, server.URL+"/categories/")
	}))
	t.Cleanup(server.Close)

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	if _, err := client.ListCategories(context.Background()); err == nil {
		t.Fatal("expected error for endless pagination")
	}
}

func TestCreateItem(t *testing.T) {
	client, backend := setupTestClient(t)
	tools := backend.AddCategory("Tools")

	draft := model.ItemDraft{
		Name:     "Drill",
		Quantity: 4,
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("89.90")),
		Category: &tools.ID,
	}
	item, err := client.CreateItem(context.Background(), draft)
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if item.ID == 0 || item.Name != "Drill" || item.Quantity != 4 {
		t.Errorf("unexpected item: %+v", item)
	}

	logs := backend.Logs()
	if len(logs) != 1 || logs[0].Action != model.ActionCreate || logs[0].QuantityChanged != 4 {
		t.Errorf("expected a CREATE log entry, got %+v", logs)
	}
}

func TestUpdateItemSendsPatch(t *testing.T) {
	client, backend := setupTestClient(t)
	seeded := backend.AddItem("Bolt", 5, "0.10", nil)

	draft := model.DraftFromItem(seeded)
	draft.Quantity = 20
	item, err := client.UpdateItem(context.Background(), seeded.ID, draft)
	if err != nil {
		t.Fatalf("updating item: %v", err)
	}
	if item.Quantity != 20 {
		t.Errorf("expected quantity 20, got %d", item.Quantity)
	}

	path := fmt.Sprintf("/items/%d/", seeded.ID)
	if n := backend.Count(http.MethodPatch, path); n != 1 {
		t.Errorf("expected 1 PATCH %s, got %d", path, n)
	}

	logs := backend.Logs()
	if len(logs) != 1 || logs[0].Action != model.ActionRestock || logs[0].QuantityChanged != 15 {
		t.Errorf("expected a RESTOCK log entry of 15, got %+v", logs)
	}
}

func TestDeleteItem(t *testing.T) {
	client, backend := setupTestClient(t)
	seeded := backend.AddItem("Nut", 7, "0.05", nil)

	if err := client.DeleteItem(context.Background(), seeded.ID); err != nil {
		t.Fatalf("deleting item: %v", err)
	}
	if len(backend.Items()) != 0 {
		t.Error("expected item to be deleted")
	}

	logs := backend.Logs()
	if len(logs) != 1 || logs[0].Action != model.ActionDelete || logs[0].ItemID != nil {
		t.Errorf("expected a DELETE log entry without item, got %+v", logs)
	}
}

func TestDeleteMissingItem(t *testing.T) {
	client, _ := setupTestClient(t)

	err := client.DeleteItem(context.Background(), 999)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
}

func TestCreateUser(t *testing.T) {
	client, backend := setupTestClient(t)

	user, err := client.CreateUser(context.Background(), model.UserDraft{Username: "ana", Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if user.Username != "ana" || user.IsStaff {
		t.Errorf("unexpected user: %+v", user)
	}

	reqs := backend.Requests()
	var body map[string]string
	if err := json.Unmarshal(reqs[len(reqs)-1].Body, &body); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	if body["password"] != "pw" {
		t.Errorf("expected password in request body, got %v", body)
	}

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("listing users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestErrorDetail(t *testing.T) {
	client, backend := setupTestClient(t)
	backend.Fail(http.MethodPost, "/items/", http.StatusBadRequest, "Price must be positive.")

	_, err := client.CreateItem(context.Background(), model.ItemDraft{Name: "X"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Detail != "Price must be positive." {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if got := Message(err, "Failed to create item"); got != "Price must be positive." {
		t.Errorf("expected detail message, got %q", got)
	}
}

func TestMessageFallback(t *testing.T) {
	client, backend := setupTestClient(t)
	backend.Fail(http.MethodPost, "/users/", http.StatusBadRequest, "")

	_, err := client.CreateUser(context.Background(), model.UserDraft{Username: "a", Password: "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Message(err, "Failed to create user"); got != "Failed to create user" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := Message(errors.New("dial tcp: refused"), "fallback"); got != "fallback" {
		t.Errorf("expected fallback for transport error, got %q", got)
	}
}

func TestRequestHeaders(t *testing.T) {
	client, backend := setupTestClient(t)

	if _, err := client.ListLogs(context.Background()); err != nil {
		t.Fatalf("listing logs: %v", err)
	}

	reqs := backend.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	h := reqs[0].Header
	if got := h.Get("Authorization"); got != "Token secret" {
		t.Errorf("expected Authorization %q, got %q", "Token secret", got)
	}
	if got := h.Get("Accept"); got != "application/json" {
		t.Errorf("expected JSON Accept header, got %q", got)
	}
	if _, err := uuid.Parse(h.Get("X-Request-ID")); err != nil {
		t.Errorf("expected UUID request id, got %q", h.Get("X-Request-ID"))
	}
}

func TestDefaultTokenScheme(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	t.Cleanup(server.Close)

	client, err := New(server.URL, WithToken("", "abc"))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Fatalf("listing users: %v", err)
	}
	if got != "Bearer abc" {
		t.Errorf("expected Bearer scheme, got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantField string
	}{
		{"malformed body", `{"oops"`, -1, ""},
		{"object without results", `{"count": 0}`, -1, ""},
		{"missing name", `[{"id": 1, "quantity": 2}]`, 0, "name"},
		{"blank name", `[{"id": 1, "name": "Bolt", "quantity": 1}, {"id": 2, "name": "  ", "quantity": 1}]`, 1, "name"},
		{"missing quantity", `[{"id": 1, "name": "Bolt"}]`, 0, "quantity"},
		{"missing id", `[{"name": "Bolt", "quantity": 1}]`, 0, "id"},
		{"wrong type", `[{"id": "one", "name": "Bolt", "quantity": 1}]`, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := New(server.URL)
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}
			_, err = client.ListItems(context.Background())

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Resource != ResourceItems {
				t.Errorf("expected resource %q, got %q", ResourceItems, perr.Resource)
			}
			if perr.Index != tt.wantIndex || perr.Field != tt.wantField {
				t.Errorf("expected index %d field %q, got %d %q", tt.wantIndex, tt.wantField, perr.Index, perr.Field)
			}
			if tt.wantField != "" && !errors.Is(err, errMissing) {
				t.Errorf("expected errMissing, got %v", err)
			}
		})
	}
}

func TestParseLogEntryRequiresTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "action": "SALE"}]`))
	}))
	t.Cleanup(server.Close)

	client, _ := New(server.URL)
	_, err := client.ListLogs(context.Background())

	var perr *ParseError
	if !errors.As(err, &perr) || perr.Field != "timestamp" {
		t.Fatalf("expected timestamp parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "logs[0]") {
		t.Errorf("expected element position in message, got %q", err.Error())
	}
}
