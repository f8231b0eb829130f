package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	key, ok := ParseSortKey("")
	assert.True(t, ok)
	assert.Equal(t, SortLocation, key)

	key, ok = ParseSortKey("PRICE")
	assert.True(t, ok)
	assert.Equal(t, SortPrice, key)

	_, ok = ParseSortKey("bogus")
	assert.False(t, ok)
}

func TestSortNeedsMetaJoin(t *testing.T) {
	assert.True(t, SortNeedsMetaJoin(SortFavorite))
	assert.True(t, SortNeedsMetaJoin(SortNote))
	assert.False(t, SortNeedsMetaJoin(SortLocation))
	assert.False(t, SortNeedsMetaJoin(SortForReorder))
}

func TestOrderExpressionsLocation(t *testing.T) {
	exprs := OrderExpressions(SortLocation, false)
	require.Len(t, exprs, 5)
	assert.Equal(t, "rack ASC", exprs[0])
	assert.Equal(t, "shelf ASC", exprs[1])
	assert.Contains(t, exprs[2], "substring(box from '^([0-9]+)')")
	assert.Contains(t, exprs[3], "substring(box from '([0-9]+)$')")
	assert.Equal(t, "lower(box) ASC", exprs[4])
}

func TestOrderExpressionsNameDigitFirst(t *testing.T) {
	exprs := OrderExpressions(SortName, true)
	require.Len(t, exprs, 6)
	assert.Contains(t, exprs[0], "substring(name from 1 for 1) ~ '[0-9]'")
	assert.True(t, strings.HasSuffix(exprs[0], "DESC"))
	assert.Equal(t, "lower(name) DESC", exprs[1])
	// stable tie-break tuple
	assert.Equal(t, []string{"rack ASC", "shelf ASC", "lower(box) ASC", "lower(name) ASC"}, exprs[2:])
}

func TestOrderExpressionsAppendTieBreak(t *testing.T) {
	for _, key := range []SortKey{SortGroup, SortQuantity, SortPrice, SortFavorite, SortForReorder} {
		exprs := OrderExpressions(key, false)
		require.GreaterOrEqual(t, len(exprs), 5, "key %s", key)
		assert.Equal(t, "lower(name) ASC", exprs[len(exprs)-1], "key %s", key)
	}
}

func TestOrderExpressionsUnknownFallsBackToLocation(t *testing.T) {
	assert.Equal(t, OrderExpressions(SortLocation, false), OrderExpressions(SortKey("bogus"), false))
}

func TestOrderExpressionsDirection(t *testing.T) {
	asc := OrderExpressions(SortPrice, false)
	desc := OrderExpressions(SortPrice, true)
	assert.Equal(t, "price ASC NULLS LAST", asc[0])
	assert.Equal(t, "price DESC NULLS LAST", desc[0])
}
