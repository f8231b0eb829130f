package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNormalizeShelf(t *testing.T) {
	item := InventoryItem{Shelf: "b"}
	item.NormalizeShelf()
	assert.Equal(t, "B", item.Shelf)

	item.Shelf = "C"
	item.NormalizeShelf()
	assert.Equal(t, "C", item.Shelf)
}

func TestForReorder(t *testing.T) {
	tests := []struct {
		name         string
		stock        *int
		level        *int
		discontinued bool
		want         bool
	}{
		{"stock below level", intPtr(2), intPtr(5), false, true},
		{"stock equals level", intPtr(5), intPtr(5), false, true},
		{"stock above level", intPtr(9), intPtr(5), false, false},
		{"missing stock", nil, intPtr(5), false, false},
		{"missing level", intPtr(2), nil, false, false},
		{"both missing", nil, nil, false, false},
		{"discontinued never flags", intPtr(0), intPtr(5), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := InventoryItem{
				QuantityInStock: tt.stock,
				ReorderLevel:    tt.level,
				Discontinued:    tt.discontinued,
			}
			assert.Equal(t, tt.want, item.ForReorder())
		})
	}
}

func TestLocalizationStr(t *testing.T) {
	item := InventoryItem{Rack: 8, Shelf: "a", Box: "12"}
	assert.Equal(t, "8--A--12", item.LocalizationStr())
}

func TestIsFavoriteColor(t *testing.T) {
	for _, color := range FavoriteColors {
		assert.True(t, IsFavoriteColor(color), color)
	}
	assert.False(t, IsFavoriteColor("red"))
	assert.False(t, IsFavoriteColor("MAUVE"))
	assert.False(t, IsFavoriteColor(""))
}

func TestStringArrayScanValue(t *testing.T) {
	var arr StringArray
	require.NoError(t, arr.Scan([]byte(`["alice","bob"]`)))
	assert.True(t, arr.Contains("alice"))
	assert.False(t, arr.Contains("carol"))

	v, err := arr.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["alice","bob"]`, string(v.([]byte)))

	var empty StringArray
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}
