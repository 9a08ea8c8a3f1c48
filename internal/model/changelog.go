package model

import "time"

// ChangeLogEntry records a quantity-affecting action on an item. Entries are
// produced by the backend as a side effect of item mutations.
type ChangeLogEntry struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	ItemID          *int64    `json:"item"`
	ItemName        string    `json:"item_name"`
	Action          string    `json:"action"`
	UserUsername    string    `json:"user_username"`
	QuantityChanged int       `json:"quantity_changed"`
	Remarks         string    `json:"remarks,omitempty"`
}

// Change log actions.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionRestock = "RESTOCK"
	ActionSale    = "SALE"
	ActionDelete  = "DELETE"
)

// Actions lists the change log actions in display order.
var Actions = []string{ActionCreate, ActionUpdate, ActionRestock, ActionSale, ActionDelete}

// RecentChangesLimit is the number of entries shown as recent activity.
const RecentChangesLimit = 5

// ActionLabel returns the human-readable label of an action.
func ActionLabel(action string) string {
	switch action {
	case ActionCreate:
		return "Created"
	case ActionUpdate:
		return "Updated"
	case ActionRestock:
		return "Restocked"
	case ActionSale:
		return "Sold"
	case ActionDelete:
		return "Deleted"
	default:
		return action
	}
}

// IsIncrease reports whether the entry increased stock.
func (e ChangeLogEntry) IsIncrease() bool {
	return e.QuantityChanged > 0
}
