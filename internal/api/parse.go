package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/model"
)

// Wire shapes. Pointers distinguish absent fields from zero values.

type wireItem struct {
	ID           *int64              `json:"id"`
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Quantity     *int                `json:"quantity"`
	Price        decimal.NullDecimal `json:"price"`
	Category     *int64              `json:"category"`
	CategoryName *string             `json:"category_name"`
	DateAdded    *time.Time          `json:"date_added"`
	LastUpdated  *time.Time          `json:"last_updated"`
	ManagedBy    *string             `json:"managed_by_username"`
}

type wireCategory struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type wireUser struct {
	ID       *int64  `json:"id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsStaff  bool    `json:"is_staff"`
}

type wireLogEntry struct {
	ID              *int64     `json:"id"`
	Timestamp       *time.Time `json:"timestamp"`
	Item            *int64     `json:"item"`
	ItemName        string     `json:"item_name"`
	Action          string     `json:"action"`
	UserUsername    *string    `json:"user_username"`
	QuantityChanged int        `json:"quantity_changed"`
	Remarks         *string    `json:"remarks"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func parseItem(raw json.RawMessage, index int) (model.Item, error) {
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.Item{}, &ParseError{Resource: ResourceItems, Index: index, Err: err}
	}
	switch {
	case w.ID == nil:
		return model.Item{}, &ParseError{Resource: ResourceItems, Index: index, Field: "id", Err: errMissing}
	case w.Name == nil || strings.TrimSpace(*w.Name) == "":
		return model.Item{}, &ParseError{Resource: ResourceItems, Index: index, Field: "name", Err: errMissing}
	case w.Quantity == nil:
		return model.Item{}, &ParseError{Resource: ResourceItems, Index: index, Field: "quantity", Err: errMissing}
	}

	return model.Item{
		ID:           *w.ID,
		Name:         *w.Name,
		Description:  str(w.Description),
		Quantity:     *w.Quantity,
		Price:        w.Price,
		Category:     w.Category,
		CategoryName: str(w.CategoryName),
		DateAdded:    w.DateAdded,
		LastUpdated:  w.LastUpdated,
		ManagedBy:    str(w.ManagedBy),
	}, nil
}

func parseCategory(raw json.RawMessage, index int) (model.Category, error) {
	var w wireCategory
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.Category{}, &ParseError{Resource: ResourceCategories, Index: index, Err: err}
	}
	if w.ID == nil {
		return model.Category{}, &ParseError{Resource: ResourceCategories, Index: index, Field: "id", Err: errMissing}
	}
	if w.Name == nil || *w.Name == "" {
		return model.Category{}, &ParseError{Resource: ResourceCategories, Index: index, Field: "name", Err: errMissing}
	}
	return model.Category{ID: *w.ID, Name: *w.Name, Description: str(w.Description)}, nil
}

func parseUser(raw json.RawMessage, index int) (model.User, error) {
	var w wireUser
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.User{}, &ParseError{Resource: ResourceUsers, Index: index, Err: err}
	}
	if w.ID == nil {
		return model.User{}, &ParseError{Resource: ResourceUsers, Index: index, Field: "id", Err: errMissing}
	}
	if w.Username == nil || *w.Username == "" {
		return model.User{}, &ParseError{Resource: ResourceUsers, Index: index, Field: "username", Err: errMissing}
	}
	return model.User{ID: *w.ID, Username: *w.Username, Email: str(w.Email), IsStaff: w.IsStaff}, nil
}

func parseLogEntry(raw json.RawMessage, index int) (model.ChangeLogEntry, error) {
	var w wireLogEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.ChangeLogEntry{}, &ParseError{Resource: ResourceLogs, Index: index, Err: err}
	}
	if w.ID == nil {
		return model.ChangeLogEntry{}, &ParseError{Resource: ResourceLogs, Index: index, Field: "id", Err: errMissing}
	}
	if w.Timestamp == nil {
		return model.ChangeLogEntry{}, &ParseError{Resource: ResourceLogs, Index: index, Field: "timestamp", Err: errMissing}
	}
	return model.ChangeLogEntry{
		ID:              *w.ID,
		Timestamp:       *w.Timestamp,
		ItemID:          w.Item,
		ItemName:        w.ItemName,
		Action:          w.Action,
		UserUsername:    str(w.UserUsername),
		QuantityChanged: w.QuantityChanged,
		Remarks:         str(w.Remarks),
	}, nil
}

// parseAll converts every raw element with parse, stopping at the first error.
func parseAll[T any](raws []json.RawMessage, parse func(json.RawMessage, int) (T, error)) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := parse(raw, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
