package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/inventrack/internal/model"
)

func TestFilterUsers(t *testing.T) {
	users := []model.User{
		{ID: 1, Username: "ana", Email: "ana@shop.example"},
		{ID: 2, Username: "bor", Email: "bor@warehouse.example"},
		{ID: 3, Username: "Cene"},
	}

	assert.Len(t, FilterUsers(users, ""), 3)
	assert.Equal(t, []model.User{users[1]}, FilterUsers(users, "WAREHOUSE"))
	assert.Equal(t, []model.User{users[2]}, FilterUsers(users, "cen"))
	assert.Empty(t, FilterUsers(users, "nobody"))
}

func TestFilterLogs(t *testing.T) {
	entries := []model.ChangeLogEntry{
		{ID: 3, Action: model.ActionSale},
		{ID: 2, Action: model.ActionRestock},
		{ID: 1, Action: model.ActionSale},
	}

	assert.Equal(t, entries, FilterLogs(entries, ""))

	sales := FilterLogs(entries, model.ActionSale)
	assert.Len(t, sales, 2)
	assert.Equal(t, int64(3), sales[0].ID)
	assert.Equal(t, int64(1), sales[1].ID)

	assert.Empty(t, FilterLogs(entries, model.ActionDelete))
}
