// Package stats computes the dashboard figures from the cached collections.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/inventrack/internal/model"
)

// Summary holds the dashboard figures.
type Summary struct {
	TotalItems    int
	TotalQuantity int
	TotalValue    decimal.Decimal
	LowStock      []model.Item
	UserCount     int
	RecentChanges []model.ChangeLogEntry
}

// Summarize computes the dashboard figures. logs are expected newest first.
func Summarize(items []model.Item, users []model.User, logs []model.ChangeLogEntry) Summary {
	s := Summary{
		TotalItems:    len(items),
		TotalValue:    decimal.Zero,
		LowStock:      LowStock(items, model.LowStockThreshold),
		UserCount:     len(users),
		RecentChanges: Recent(logs, model.RecentChangesLimit),
	}
	for _, item := range items {
		s.TotalQuantity += item.Quantity
		s.TotalValue = s.TotalValue.Add(item.Value())
	}
	return s
}

// LowStock returns the items with quantity below threshold, in input order.
func LowStock(items []model.Item, threshold int) []model.Item {
	out := make([]model.Item, 0)
	for _, item := range items {
		if item.Quantity < threshold {
			out = append(out, item)
		}
	}
	return out
}

// Recent returns the first n entries without reordering them.
func Recent(logs []model.ChangeLogEntry, n int) []model.ChangeLogEntry {
	if n < 0 {
		n = 0
	}
	return logs[:min(n, len(logs)):min(n, len(logs))]
}
