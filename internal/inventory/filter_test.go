package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestExpandUnitSynonyms(t *testing.T) {
	assert.ElementsMatch(t, []string{"ROLL", "ROLLS"}, ExpandUnitSynonyms("rolls"))
	assert.ElementsMatch(t, []string{"PCS", "PC", "PIECE", "PIECES"}, ExpandUnitSynonyms(" pc "))
	assert.ElementsMatch(t, []string{"LTR", "L", "LITER", "LITERS"}, ExpandUnitSynonyms("Liter"))
	assert.Nil(t, ExpandUnitSynonyms("FURLONG"))
	assert.Nil(t, ExpandUnitSynonyms(""))
}

func TestResolveSearchFields(t *testing.T) {
	fields, err := ResolveSearchFields(nil)
	require.NoError(t, err)
	assert.Equal(t, SearchableFields, fields)

	fields, err = ResolveSearchFields([]string{"name", "all"})
	require.NoError(t, err)
	assert.Equal(t, SearchableFields, fields)

	fields, err = ResolveSearchFields([]string{"Name", " vendor "})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "vendor"}, fields)

	_, err = ResolveSearchFields([]string{"password"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestFiltersActive(t *testing.T) {
	assert.False(t, Filters{}.Active())
	assert.False(t, Filters{Search: "   "}.Active())
	assert.True(t, Filters{Search: "bolt"}.Active())
	assert.True(t, Filters{Unit: "PCS"}.Active())
	assert.True(t, Filters{InStock: boolPtr(false)}.Active())
}

func TestBuildPredicatesSearch(t *testing.T) {
	preds, needsMeta, err := BuildPredicates(Filters{Search: "bolt", SearchFields: []string{"name", "vendor"}})
	require.NoError(t, err)
	assert.False(t, needsMeta)
	require.Len(t, preds, 1)
	assert.Equal(t, "(name ILIKE ? OR vendor ILIKE ?)", preds[0].Expr)
	assert.Equal(t, []interface{}{"%bolt%", "%bolt%"}, preds[0].Args)
}

func TestBuildPredicatesSearchInvalidField(t *testing.T) {
	_, _, err := BuildPredicates(Filters{Search: "bolt", SearchFields: []string{"nope"}})
	require.Error(t, err)
}

func TestBuildPredicatesUnitSynonyms(t *testing.T) {
	preds, _, err := BuildPredicates(Filters{Unit: "kg"})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Contains(t, preds[0].Expr, "upper(units) IN ?")
	require.Len(t, preds[0].Args, 2)
	assert.ElementsMatch(t, []string{"KGM", "KG", "KGS"}, preds[0].Args[0])
}

func TestBuildPredicatesUnknownUnitDropped(t *testing.T) {
	preds, _, err := BuildPredicates(Filters{Unit: "FURLONG"})
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestBuildPredicatesHasFavoriteNeedsMeta(t *testing.T) {
	preds, needsMeta, err := BuildPredicates(Filters{HasFavorite: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, needsMeta)
	require.Len(t, preds, 1)
	assert.Contains(t, preds[0].Expr, "meta.favorite_color")
}

func TestBuildPredicatesTriState(t *testing.T) {
	rack := 3
	preds, _, err := BuildPredicates(Filters{
		Rack:         &rack,
		Condition:    "USED",
		InStock:      boolPtr(true),
		Discontinued: boolPtr(false),
		ForReorder:   boolPtr(true),
	})
	require.NoError(t, err)
	require.Len(t, preds, 5)
	assert.Equal(t, "rack = ?", preds[0].Expr)
	assert.Equal(t, []interface{}{"used"}, preds[1].Args)
	assert.Equal(t, "quantity_in_stock > 0", preds[2].Expr)
	assert.Equal(t, []interface{}{false}, preds[3].Args)
	assert.Contains(t, preds[4].Expr, "quantity_in_stock <= reorder_level")
}
