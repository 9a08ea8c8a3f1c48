package listview

import (
	"strings"

	"github.com/erazemk/inventrack/internal/model"
)

// FilterUsers returns the users whose username or email contains search,
// ignoring case.
func FilterUsers(users []model.User, search string) []model.User {
	search = strings.ToLower(search)
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), search) ||
			strings.Contains(strings.ToLower(u.Email), search) {
			out = append(out, u)
		}
	}
	return out
}

// FilterLogs returns the entries with the given action, or all entries when
// action is empty. Order is preserved.
func FilterLogs(entries []model.ChangeLogEntry, action string) []model.ChangeLogEntry {
	if action == "" {
		return entries
	}
	out := make([]model.ChangeLogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
