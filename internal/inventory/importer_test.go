package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbrain-system/internal/database/models"
)

func TestParseLocalization(t *testing.T) {
	rack, shelf, box, err := ParseLocalization("1-B-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rack)
	assert.Equal(t, "B", shelf)
	assert.Equal(t, "1", box)

	rack, shelf, box, err = ParseLocalization(" 12 - c - 3a ")
	require.NoError(t, err)
	assert.Equal(t, 12, rack)
	assert.Equal(t, "C", shelf)
	assert.Equal(t, "3a", box)

	for _, bad := range []string{"", "1-B", "x-B-1", "1-BB-1", "1-B-", "1-B-1-2"} {
		_, _, _, err := ParseLocalization(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

const importHeader = "Localization,Group,Name,Part Description,Part Number," +
	"DCM Number,OEM Name,OEM Number,Vendor,Source Location,Units," +
	"Quantity in Stock,Price,Reorder Level,Reorder Time in Days," +
	"Quantity in Reorder,Discontinued?\n"

func TestParseImport(t *testing.T) {
	csvData := importHeader +
		"1-B-1,Fasteners,Hex Bolt M8,Zinc plated,HB-M8,DCM-01,ACME,A-88,BoltCo,Warehouse 2,PCS,3.0,\"12,50\",5,14,0,No\n" +
		"2-A-10,,Gasket Kit,,,,,,,,SET,,,,,,Yes\n"

	items, err := ParseImport(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, 1, first.Rack)
	assert.Equal(t, "B", first.Shelf)
	assert.Equal(t, "1", first.Box)
	assert.Equal(t, "Fasteners", first.GroupName)
	assert.Equal(t, "Hex Bolt M8", first.Name)
	assert.Equal(t, "PCS", first.Units)
	require.NotNil(t, first.QuantityInStock)
	assert.Equal(t, 3, *first.QuantityInStock)
	require.NotNil(t, first.Price)
	assert.Equal(t, "12.5", first.Price.String())
	require.NotNil(t, first.ReorderLevel)
	assert.Equal(t, 5, *first.ReorderLevel)
	assert.False(t, first.Discontinued)
	assert.Equal(t, models.ConditionNew, first.Condition)

	second := items[1]
	assert.Equal(t, 2, second.Rack)
	assert.Equal(t, "Gasket Kit", second.Name)
	assert.Nil(t, second.QuantityInStock)
	assert.Nil(t, second.Price)
	assert.True(t, second.Discontinued)
}

func TestParseImportBadRowReportsNumber(t *testing.T) {
	csvData := importHeader +
		"1-B-1,,Good Row,,,,,,,,PCS,,,,,,No\n" +
		"not-a-location,,Bad Row,,,,,,,,PCS,,,,,,No\n"

	_, err := ParseImport(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestParseImportMissingRequiredColumn(t *testing.T) {
	_, err := ParseImport(strings.NewReader("Group,Name\nFasteners,Bolt\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Localization")
}

func TestParseImportUnknownColumn(t *testing.T) {
	_, err := ParseImport(strings.NewReader("Localization,Name,Warehouse Wing\n1-B-1,Bolt,East\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Warehouse Wing")
}

func TestParseImportEmptyBody(t *testing.T) {
	items, err := ParseImport(strings.NewReader(importHeader))
	require.NoError(t, err)
	assert.Empty(t, items)
}
