package inventory

import "strings"

// SortKey identifies one of the fixed sortable views over inventory items.
type SortKey string

const (
	SortLocation        SortKey = "location"
	SortName            SortKey = "name"
	SortGroup           SortKey = "group"
	SortPartDescription SortKey = "part_description"
	SortPartNumber      SortKey = "part_number"
	SortDcmNumber       SortKey = "dcm_number"
	SortOemName         SortKey = "oem_name"
	SortOemNumber       SortKey = "oem_number"
	SortVendor          SortKey = "vendor"
	SortUnits           SortKey = "units"
	SortQuantity        SortKey = "quantity_in_stock"
	SortPrice           SortKey = "price"
	SortReorderLevel    SortKey = "reorder_level"
	SortReorderTime     SortKey = "reorder_time_days"
	SortQtyInReorder    SortKey = "quantity_in_reorder"
	SortDiscontinued    SortKey = "discontinued"
	SortCondition       SortKey = "condition"
	SortFavorite        SortKey = "favorite"
	SortNote            SortKey = "note"
	SortForReorder      SortKey = "for_reorder"
)

// MetaJoin is the LEFT JOIN required by the favorite/note sorts and the
// has-favorite filter. It takes the requesting user's id as its single
// argument, so one user's overlay never leaks into another's ordering.
const MetaJoin = "LEFT JOIN inventory_user_meta meta" +
	" ON meta.item_id = inventory_items.id AND meta.user_id = ?"

// forReorderExpr mirrors InventoryItem.ForReorder in SQL: both operands
// present, not discontinued, stock at or below the reorder level.
const forReorderExpr = "CASE WHEN quantity_in_stock IS NOT NULL" +
	" AND reorder_level IS NOT NULL AND NOT discontinued" +
	" AND quantity_in_stock <= reorder_level THEN 0 ELSE 1 END"

const hasFavoriteExpr = "CASE WHEN meta.favorite_color IS NOT NULL" +
	" AND meta.favorite_color <> '' THEN 0 ELSE 1 END"

const hasNoteExpr = "CASE WHEN meta.note IS NOT NULL" +
	" AND meta.note <> '' THEN 0 ELSE 1 END"

type sortSpec struct {
	// build returns the ORDER BY fragments for the key, excluding the
	// stable tie-break tuple which OrderExpressions always appends.
	build        func(dir string) []string
	needsMeta    bool
	omitTieBreak bool
}

func dirSuffix(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func column(name string) func(dir string) []string {
	return func(dir string) []string {
		return []string{name + " " + dir + " NULLS LAST"}
	}
}

func textColumn(name string) func(dir string) []string {
	return func(dir string) []string {
		return []string{"lower(" + name + ") " + dir}
	}
}

var sortTable = map[SortKey]sortSpec{
	SortLocation: {
		build: func(dir string) []string {
			// Natural ordering of the free-text box token: leading numeric
			// run, trailing numeric run, then the raw text. Boxes without a
			// numeric run sort after those with one.
			return []string{
				"rack " + dir,
				"shelf " + dir,
				"NULLIF(substring(box from '^([0-9]+)'), '')::bigint " + dir + " NULLS LAST",
				"NULLIF(substring(box from '([0-9]+)$'), '')::bigint " + dir + " NULLS LAST",
				"lower(box) " + dir,
			}
		},
		omitTieBreak: true,
	},
	SortName: {
		build: func(dir string) []string {
			// Digit-first partition: names starting with a digit sort as a
			// group before names starting with a letter, case-insensitively
			// within each group.
			return []string{
				"CASE WHEN substring(name from 1 for 1) ~ '[0-9]' THEN 0 ELSE 1 END " + dir,
				"lower(name) " + dir,
			}
		},
	},
	SortGroup:           {build: textColumn("group_name")},
	SortPartDescription: {build: textColumn("part_description")},
	SortPartNumber:      {build: textColumn("part_number")},
	SortDcmNumber:       {build: textColumn("dcm_number")},
	SortOemName:         {build: textColumn("oem_name")},
	SortOemNumber:       {build: textColumn("oem_number")},
	SortVendor:          {build: textColumn("vendor")},
	SortUnits:           {build: textColumn("units")},
	SortQuantity:        {build: column("quantity_in_stock")},
	SortPrice:           {build: column("price")},
	SortReorderLevel:    {build: column("reorder_level")},
	SortReorderTime:     {build: column("reorder_time_days")},
	SortQtyInReorder:    {build: column("quantity_in_reorder")},
	SortDiscontinued:    {build: column("discontinued")},
	SortCondition:       {build: textColumn("condition")},
	SortFavorite: {
		build:     func(dir string) []string { return []string{hasFavoriteExpr + " " + dir} },
		needsMeta: true,
	},
	SortNote: {
		build:     func(dir string) []string { return []string{hasNoteExpr + " " + dir} },
		needsMeta: true,
	},
	SortForReorder: {
		build: func(dir string) []string { return []string{forReorderExpr + " " + dir} },
	},
}

// ParseSortKey validates a requested sort key, defaulting to location.
func ParseSortKey(raw string) (SortKey, bool) {
	if raw == "" {
		return SortLocation, true
	}
	key := SortKey(strings.ToLower(raw))
	_, ok := sortTable[key]
	return key, ok
}

// SortNeedsMetaJoin reports whether ordering by key reads the per-user
// overlay table.
func SortNeedsMetaJoin(key SortKey) bool {
	return sortTable[key].needsMeta
}

// OrderExpressions returns the ORDER BY fragments for a sort key and
// direction. Every sort ends in the stable (rack, shelf, box, name)
// tie-break tuple so page boundaries stay deterministic.
func OrderExpressions(key SortKey, desc bool) []string {
	spec, ok := sortTable[key]
	if !ok {
		spec = sortTable[SortLocation]
	}
	dir := dirSuffix(desc)
	exprs := spec.build(dir)
	if !spec.omitTieBreak {
		exprs = append(exprs, "rack ASC", "shelf ASC", "lower(box) ASC", "lower(name) ASC")
	}
	return exprs
}
