// Package listview derives the ordered, filtered inventory view from the raw
// item collection and the operator's list controls.
package listview

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/inventrack/internal/model"
)

// SortKey names the item field a view is ordered by.
type SortKey string

// Sort keys.
const (
	SortName      SortKey = "name"
	SortQuantity  SortKey = "quantity"
	SortPrice     SortKey = "price"
	SortDateAdded SortKey = "date_added"
)

// SortKeys lists the valid sort keys.
var SortKeys = []SortKey{SortName, SortQuantity, SortPrice, SortDateAdded}

// ParseSortKey returns the sort key named s.
func ParseSortKey(s string) (SortKey, bool) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// AllCategories disables the category filter.
const AllCategories = "all"

// Controls are the operator's list settings.
type Controls struct {
	Search    string
	Category  string
	SortKey   SortKey
	Ascending bool
}

// DefaultControls returns the controls of a freshly opened list.
func DefaultControls() Controls {
	return Controls{Category: AllCategories, SortKey: SortName, Ascending: true}
}

// Toggle returns the controls after the operator picks key: the active key
// flips direction, any other key becomes active in ascending order.
func (c Controls) Toggle(key SortKey) Controls {
	if c.SortKey == key {
		c.Ascending = !c.Ascending
		return c
	}
	c.SortKey = key
	c.Ascending = true
	return c
}

// DeriveView returns the items matching c in c's order, collating names
// with English rules.
func DeriveView(items []model.Item, c Controls) []model.Item {
	return DeriveViewLocale(language.English, items, c)
}

// DeriveViewLocale is DeriveView with names collated for locale. The input
// slice is not modified.
func DeriveViewLocale(locale language.Tag, items []model.Item, c Controls) []model.Item {
	search := strings.ToLower(c.Search)

	view := make([]model.Item, 0, len(items))
	for _, item := range items {
		if !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		if !matchesCategory(item, c.Category) {
			continue
		}
		view = append(view, item)
	}

	compare := comparator(locale, c.SortKey)
	slices.SortStableFunc(view, func(a, b model.Item) int {
		if c.Ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return view
}

func matchesCategory(item model.Item, filter string) bool {
	if filter == AllCategories {
		return true
	}
	if item.Category == nil {
		return false
	}
	return strconv.FormatInt(*item.Category, 10) == filter
}

// comparator returns an ascending comparison for key. Missing values order
// before every present value.
func comparator(locale language.Tag, key SortKey) func(a, b model.Item) int {
	switch key {
	case SortQuantity:
		return func(a, b model.Item) int {
			return cmp.Compare(a.Quantity, b.Quantity)
		}
	case SortPrice:
		return func(a, b model.Item) int {
			return compareMissing(a.Price.Valid, b.Price.Valid, func() int {
				return a.Price.Decimal.Cmp(b.Price.Decimal)
			})
		}
	case SortDateAdded:
		return func(a, b model.Item) int {
			return compareMissing(a.DateAdded != nil, b.DateAdded != nil, func() int {
				return a.DateAdded.Compare(*b.DateAdded)
			})
		}
	default:
		// Collators keep scratch buffers, so each view gets its own.
		col := collate.New(locale)
		return func(a, b model.Item) int {
			return col.CompareString(a.Name, b.Name)
		}
	}
}

func compareMissing(aOK, bOK bool, both func() int) int {
	switch {
	case aOK && bOK:
		return both()
	case aOK:
		return 1
	case bOK:
		return -1
	default:
		return 0
	}
}

