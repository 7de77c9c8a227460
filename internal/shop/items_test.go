package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAllItems(t *testing.T) {
	items := GetAllItems()
	require.Len(t, items, len(Items))

	seen := make(map[ItemID]bool)
	for _, item := range items {
		assert.NotEmpty(t, item.Name)
		assert.Positive(t, item.Price)
		assert.False(t, seen[item.ID], "duplicate item %s", item.ID)
		seen[item.ID] = true
	}
}

func TestGetItem(t *testing.T) {
	item, ok := GetItem(ItemGoldFrame)
	require.True(t, ok)
	assert.Equal(t, ItemGoldFrame, item.ID)

	_, ok = GetItem(ItemID("no_such_item"))
	assert.False(t, ok)
}
