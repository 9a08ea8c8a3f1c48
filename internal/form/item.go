package form

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/api"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/store"
)

// Item notifications.
const (
	MsgItemCreated      = "Item created successfully"
	MsgItemUpdated      = "Item updated successfully"
	MsgItemDeleted      = "Item deleted successfully"
	MsgItemCreateFailed = "Failed to create item"
	MsgItemUpdateFailed = "Failed to update item"
	MsgItemDeleteFailed = "Failed to delete item"
)

// ItemAPI is the part of the backend client the item form uses.
type ItemAPI interface {
	CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error)
	UpdateItem(ctx context.Context, id int64, draft model.ItemDraft) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// ItemForm edits one item draft at a time.
type ItemForm struct {
	API    ItemAPI
	Cache  Invalidator
	Notify Notifier

	draft model.ItemDraft
	open  bool
	pending
}

// New opens the form with a blank draft.
func (f *ItemForm) New(categories []model.Category) {
	f.draft = model.NewItemDraft(categories)
	f.open = true
}

// Edit opens the form with a copy of item.
func (f *ItemForm) Edit(item model.Item) {
	f.draft = model.DraftFromItem(item)
	f.open = true
}

// Draft returns the current draft.
func (f *ItemForm) Draft() model.ItemDraft {
	return f.draft
}

// IsOpen reports whether the edit surface is shown.
func (f *ItemForm) IsOpen() bool {
	return f.open
}

// Close hides the edit surface.
func (f *ItemForm) Close() {
	f.open = false
}

func (f *ItemForm) SetName(name string)               { f.draft.Name = name }
func (f *ItemForm) SetDescription(description string) { f.draft.Description = description }
func (f *ItemForm) SetQuantity(quantity int)          { f.draft.Quantity = quantity }
func (f *ItemForm) SetPrice(price decimal.Decimal)    { f.draft.Price = decimal.NewNullDecimal(price) }

// ClearPrice leaves the draft without a price.
func (f *ItemForm) ClearPrice() { f.draft.Price = decimal.NullDecimal{} }

// SetCategory sets the draft's category; nil clears it.
func (f *ItemForm) SetCategory(id *int64) {
	if id == nil {
		f.draft.Category = nil
		return
	}
	c := *id
	f.draft.Category = &c
}

// Save validates the draft and creates or updates the item. On failure the
// form stays open with the draft unchanged.
func (f *ItemForm) Save(ctx context.Context) error {
	if err := f.draft.Validate(); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			f.Notify.NotifyError(verr.Message)
		}
		return err
	}
	if !f.begin() {
		return ErrPending
	}
	defer f.end()

	var err error
	success, fallback := MsgItemCreated, MsgItemCreateFailed
	if f.draft.ID == nil {
		_, err = f.API.CreateItem(ctx, f.draft)
	} else {
		success, fallback = MsgItemUpdated, MsgItemUpdateFailed
		_, err = f.API.UpdateItem(ctx, *f.draft.ID, f.draft)
	}
	if err != nil && !accepted(err, api.ResourceItems) {
		f.Notify.NotifyError(api.Message(err, fallback))
		return err
	}

	invalidate(ctx, f.Cache, store.KeyItems, store.KeyLogs)
	f.Notify.NotifySuccess(success)
	f.Close()
	return nil
}

// Delete removes the item with id right away.
func (f *ItemForm) Delete(ctx context.Context, id int64) error {
	if !f.begin() {
		return ErrPending
	}
	defer f.end()

	if err := f.API.DeleteItem(ctx, id); err != nil {
		f.Notify.NotifyError(api.Message(err, MsgItemDeleteFailed))
		return err
	}

	invalidate(ctx, f.Cache, store.KeyItems, store.KeyLogs)
	f.Notify.NotifySuccess(MsgItemDeleted)
	return nil
}
