package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/form"
	"github.com/erazemk/inventrack/internal/listview"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/session"
)

// itemDialog is the state of the create/edit item dialog.
type itemDialog struct {
	Open   bool
	Draft  model.ItemDraft
	Action string
}

func (d itemDialog) Title() string {
	if d.Draft.ID == nil {
		return "Add Item"
	}
	return "Edit Item"
}

// InventoryPage handles GET /inventory. ?edit=new opens the dialog with a
// blank draft, ?edit={id} with a copy of that item.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	controls := listview.ParseControls(r.URL.Query())
	flashes := s.takeFlashes(w, r)
	s.renderInventory(w, r, http.StatusOK, controls, flashes, nil, r.URL.Query().Get("edit"))
}

// ItemCreateSubmit handles POST /inventory/items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	n := &notifier{}
	f := &form.ItemForm{API: s.backend, Cache: s.cache, Notify: n}
	f.New(nil)
	s.saveItem(w, r, f, n)
}

// ItemUpdateSubmit handles POST /inventory/items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusNotFound)
		return
	}

	n := &notifier{}
	f := &form.ItemForm{API: s.backend, Cache: s.cache, Notify: n}
	f.Edit(model.Item{ID: id})
	s.saveItem(w, r, f, n)
}

// ItemDeleteSubmit handles POST /inventory/items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusNotFound)
		return
	}

	n := &notifier{}
	f := &form.ItemForm{API: s.backend, Cache: s.cache, Notify: n}
	if err := f.Delete(r.Context(), id); err != nil {
		slog.Warn("failed to delete item", "id", id, "error", err)
	} else {
		slog.Info("item deleted", "id", id)
	}

	controls := listview.ParseControls(r.URL.Query())
	s.redirect(w, r, inventoryURL(controls), n.flashes)
}

func (s *Server) saveItem(w http.ResponseWriter, r *http.Request, f *form.ItemForm, n *notifier) {
	controls := listview.ParseControls(r.URL.Query())

	if verr := applyItemFields(f, r); verr != nil {
		n.NotifyError(verr.Message)
		s.renderInventory(w, r, http.StatusUnprocessableEntity, controls, n.flashes, f, "")
		return
	}

	if err := f.Save(r.Context()); err != nil {
		status := saveStatus(err)
		if status == http.StatusBadGateway {
			slog.Warn("failed to save item", "name", f.Draft().Name, "error", err)
		}
		s.renderInventory(w, r, status, controls, n.flashes, f, "")
		return
	}

	slog.Info("item saved", "name", f.Draft().Name)
	s.redirect(w, r, inventoryURL(controls), n.flashes)
}

// applyItemFields copies the submitted fields into the form's draft.
func applyItemFields(f *form.ItemForm, r *http.Request) *model.ValidationError {
	if err := r.ParseForm(); err != nil {
		return &model.ValidationError{Message: "Invalid form submission."}
	}

	f.SetName(r.PostFormValue("name"))
	f.SetDescription(r.PostFormValue("description"))

	quantity := 0
	if v := strings.TrimSpace(r.PostFormValue("quantity")); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return &model.ValidationError{Field: "quantity", Message: "Quantity must be a whole number."}
		}
		quantity = q
	}
	f.SetQuantity(quantity)

	if v := strings.TrimSpace(r.PostFormValue("price")); v != "" {
		p, err := decimal.NewFromString(v)
		if err != nil {
			return &model.ValidationError{Field: "price", Message: "Price must be a number."}
		}
		f.SetPrice(p)
	} else {
		f.ClearPrice()
	}

	var category *int64
	if v := strings.TrimSpace(r.PostFormValue("category")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &model.ValidationError{Field: "category", Message: "Category is invalid."}
		}
		category = &id
	}
	f.SetCategory(category)

	return nil
}

// renderInventory renders the inventory list. A non-nil f shows its dialog;
// otherwise edit selects which dialog, if any, to open.
func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request, status int, controls listview.Controls, flashes []session.Flash, f *form.ItemForm, edit string) {
	ctx := r.Context()
	page := PageData{Title: "Inventory", Active: "inventory", Flashes: flashes}

	items, itemsFP, err := fetch(ctx, "items", s.store.Items)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		page.LoadError = "Could not load inventory."
	}
	categories, categoriesFP, err := fetch(ctx, "categories", s.store.Categories)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	if f == nil {
		f = &form.ItemForm{}
		switch edit {
		case "":
		case "new":
			f.New(categories)
		default:
			if item, ok := findItem(items, edit); ok {
				f.Edit(item)
			} else if page.LoadError == "" {
				page.Flashes = append(page.Flashes, session.Flash{Kind: session.KindError, Message: "Item not found."})
			}
		}
	}

	if status == http.StatusOK && page.LoadError == "" && len(page.Flashes) == 0 {
		if notModified(w, r, etag(r, itemsFP, categoriesFP)) {
			return
		}
	}

	dialog := itemDialog{Open: f.IsOpen(), Draft: f.Draft(), Action: "/inventory/items"}
	if id := dialog.Draft.ID; id != nil {
		dialog.Action = fmt.Sprintf("/inventory/items/%d", *id)
	}
	if q := controls.Encode(); q != "" {
		dialog.Action += "?" + q
	}

	s.templates.Render(w, status, "inventory.html", &struct {
		PageData
		Controls   listview.Controls
		Query      string
		Items      []model.Item
		Total      int
		Categories []model.Category
		SortKeys   []listview.SortKey
		Dialog     itemDialog
	}{
		PageData:   page,
		Controls:   controls,
		Query:      controls.Encode(),
		Items:      listview.DeriveViewLocale(s.locale, items, controls),
		Total:      len(items),
		Categories: categories,
		SortKeys:   listview.SortKeys,
		Dialog:     dialog,
	})
}

func findItem(items []model.Item, id string) (model.Item, bool) {
	for _, item := range items {
		if strconv.FormatInt(item.ID, 10) == id {
			return item, true
		}
	}
	return model.Item{}, false
}

func inventoryURL(c listview.Controls) string {
	if q := c.Encode(); q != "" {
		return "/inventory?" + q
	}
	return "/inventory"
}
