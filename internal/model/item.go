package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a stock-keeping unit tracked by the backend.
type Item struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Quantity     int                 `json:"quantity"`
	Price        decimal.NullDecimal `json:"price"`
	Category     *int64              `json:"category"`
	CategoryName string              `json:"category_name,omitempty"`
	DateAdded    *time.Time          `json:"date_added,omitempty"`
	LastUpdated  *time.Time          `json:"last_updated,omitempty"`
	ManagedBy    string              `json:"managed_by_username,omitempty"`
}

// LowStockThreshold is the quantity below which an item needs attention.
const LowStockThreshold = 10

// IsLowStock reports whether the item is below the low-stock threshold.
func (i Item) IsLowStock() bool {
	return i.Quantity < LowStockThreshold
}

// Value returns quantity times price. A missing price counts as zero.
func (i Item) Value() decimal.Decimal {
	if !i.Price.Valid {
		return decimal.Zero
	}
	return i.Price.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemDraft is the unsaved state of an item being created or edited.
// A nil ID means the draft has not been saved yet. A price that is not valid
// is sent as null.
type ItemDraft struct {
	ID          *int64              `json:"-"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.NullDecimal `json:"price"`
	Category    *int64              `json:"category"`
}

// NewItemDraft returns a blank draft. The category defaults to the first
// known category, or none when there are no categories.
func NewItemDraft(categories []Category) ItemDraft {
	d := ItemDraft{Price: decimal.NewNullDecimal(decimal.Zero)}
	if len(categories) > 0 {
		id := categories[0].ID
		d.Category = &id
	}
	return d
}

// DraftFromItem copies an existing item into an editable draft.
func DraftFromItem(item Item) ItemDraft {
	id := item.ID
	d := ItemDraft{
		ID:          &id,
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		Price:       item.Price,
	}
	if item.Category != nil {
		c := *item.Category
		d.Category = &c
	}
	return d
}

// Validate checks the draft before it is submitted.
func (d ItemDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "Name is required."}
	}
	if d.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "Quantity cannot be negative."}
	}
	if d.Price.Valid && d.Price.Decimal.IsNegative() {
		return &ValidationError{Field: "price", Message: "Price cannot be negative."}
	}
	return nil
}
