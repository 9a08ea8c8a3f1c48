package listview

import (
	"net/url"
	"strings"
)

// Query parameter names.
const (
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamSort     = "sort"
	ParamDir      = "dir"
)

// ParseControls reads controls from a query string. Missing or unknown
// values fall back to the defaults.
func ParseControls(q url.Values) Controls {
	c := DefaultControls()
	c.Search = q.Get(ParamSearch)
	if cat := strings.TrimSpace(q.Get(ParamCategory)); cat != "" {
		c.Category = cat
	}
	if key, ok := ParseSortKey(q.Get(ParamSort)); ok {
		c.SortKey = key
	}
	c.Ascending = q.Get(ParamDir) != "desc"
	return c
}

// Values encodes c as a query string, leaving out default values.
func (c Controls) Values() url.Values {
	q := url.Values{}
	if c.Search != "" {
		q.Set(ParamSearch, c.Search)
	}
	if c.Category != "" && c.Category != AllCategories {
		q.Set(ParamCategory, c.Category)
	}
	if c.SortKey != "" && c.SortKey != SortName {
		q.Set(ParamSort, string(c.SortKey))
	}
	if !c.Ascending {
		q.Set(ParamDir, "desc")
	}
	return q
}

// Encode returns c as an encoded query string without the leading "?".
func (c Controls) Encode() string {
	return c.Values().Encode()
}
