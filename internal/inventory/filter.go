package inventory

import (
	"fmt"
	"strings"
)

// SearchableFields are the columns free-text search may touch. The "all"
// sentinel selects every one of them.
var SearchableFields = []string{
	"name",
	"part_description",
	"part_number",
	"dcm_number",
	"oem_name",
	"oem_number",
	"vendor",
	"source_location",
	"group_name",
	"units",
	"box",
}

// EditableFields is the allow-list for inline field edits.
var EditableFields = map[string]struct{}{
	"name":                {},
	"part_description":    {},
	"part_number":         {},
	"dcm_number":          {},
	"oem_name":            {},
	"oem_number":          {},
	"vendor":              {},
	"source_location":     {},
	"quantity_in_stock":   {},
	"price":               {},
	"reorder_level":       {},
	"reorder_time_days":   {},
	"quantity_in_reorder": {},
	"box":                 {},
	"rack":                {},
	"shelf":               {},
	"condition":           {},
	"discontinued":        {},
	"needs_verification":  {},
}

// IntegerFields and DecimalFields drive numeric validation on inline edits.
var IntegerFields = map[string]struct{}{
	"quantity_in_stock":   {},
	"reorder_level":       {},
	"reorder_time_days":   {},
	"quantity_in_reorder": {},
	"rack":                {},
}

var DecimalFields = map[string]struct{}{
	"price": {},
}

// unitSynonyms groups unit codes that should match each other. Filtering by
// any member expands to the whole group.
var unitSynonyms = [][]string{
	{"PCS", "PC", "PIECE", "PIECES"},
	{"PAIR", "PAIRS"},
	{"SET", "SETS"},
	{"KIT", "KITS"},
	{"ORGANISER", "ORGANISERS", "ORGANIZER"},
	{"BOX", "BOXES"},
	{"MM"},
	{"CM"},
	{"M", "METER", "METERS"},
	{"LTR", "L", "LITER", "LITERS"},
	{"ML"},
	{"CAN", "CANS"},
	{"KGM", "KG", "KGS"},
	{"ROLL", "ROLLS"},
}

var unitSynonymIndex = func() map[string][]string {
	idx := make(map[string][]string)
	for _, group := range unitSynonyms {
		for _, code := range group {
			idx[code] = group
		}
	}
	return idx
}()

// ExpandUnitSynonyms resolves a user-supplied unit code to every equivalent
// code. Unknown codes return nil so the caller can drop the filter instead
// of producing an empty result set.
func ExpandUnitSynonyms(code string) []string {
	return unitSynonymIndex[strings.ToUpper(strings.TrimSpace(code))]
}

// Filters carries the per-field equality/range filters of a list request.
// Pointer fields are tri-state: nil means not filtering.
type Filters struct {
	Search       string
	SearchFields []string

	Rack              *int
	Group             string
	Condition         string
	Unit              string
	InStock           *bool
	PricePositive     *bool
	Discontinued      *bool
	NeedsVerification *bool
	HasFavorite       *bool
	ForReorder        *bool
}

// Active reports whether any filter or search narrows the result set. An
// active filter forces the "all" page size.
func (f Filters) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		f.Rack != nil || f.Group != "" || f.Condition != "" || f.Unit != "" ||
		f.InStock != nil || f.PricePositive != nil || f.Discontinued != nil ||
		f.NeedsVerification != nil || f.HasFavorite != nil || f.ForReorder != nil
}

// Predicate is one WHERE fragment with its arguments.
type Predicate struct {
	Expr string
	Args []interface{}
}

// ResolveSearchFields validates the requested search field subset. The "all"
// sentinel (or an empty selection) expands to every searchable field; an
// unknown field name is a structured error, never silently applied.
func ResolveSearchFields(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return SearchableFields, nil
	}
	allowed := make(map[string]struct{}, len(SearchableFields))
	for _, f := range SearchableFields {
		allowed[f] = struct{}{}
	}
	fields := make([]string, 0, len(requested))
	for _, raw := range requested {
		f := strings.ToLower(strings.TrimSpace(raw))
		if f == "all" {
			return SearchableFields, nil
		}
		if _, ok := allowed[f]; !ok {
			return nil, fmt.Errorf("invalid search field: %s", raw)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// BuildPredicates turns Filters into WHERE fragments. It reports whether the
// per-user meta join is required (has-favorite filter).
func BuildPredicates(f Filters) (preds []Predicate, needsMeta bool, err error) {
	if search := strings.TrimSpace(f.Search); search != "" {
		fields, ferr := ResolveSearchFields(f.SearchFields)
		if ferr != nil {
			return nil, false, ferr
		}
		parts := make([]string, len(fields))
		args := make([]interface{}, len(fields))
		for i, field := range fields {
			parts[i] = field + " ILIKE ?"
			args[i] = "%" + search + "%"
		}
		preds = append(preds, Predicate{Expr: "(" + strings.Join(parts, " OR ") + ")", Args: args})
	}

	if f.Rack != nil {
		preds = append(preds, Predicate{Expr: "rack = ?", Args: []interface{}{*f.Rack}})
	}
	if f.Group != "" {
		preds = append(preds, Predicate{Expr: "group_name = ?", Args: []interface{}{f.Group}})
	}
	if f.Condition != "" {
		preds = append(preds, Predicate{Expr: "condition = ?", Args: []interface{}{strings.ToLower(f.Condition)}})
	}
	if f.Unit != "" {
		// Match both the FK-backed code and the legacy free-text column,
		// after synonym expansion. An unrecognized code drops the filter.
		if codes := ExpandUnitSynonyms(f.Unit); codes != nil {
			preds = append(preds, Predicate{
				Expr: "(upper(units) IN ? OR unit_id IN (SELECT id FROM units WHERE upper(code) IN ?))",
				Args: []interface{}{codes, codes},
			})
		}
	}
	if f.InStock != nil {
		if *f.InStock {
			preds = append(preds, Predicate{Expr: "quantity_in_stock > 0"})
		} else {
			preds = append(preds, Predicate{Expr: "(quantity_in_stock IS NULL OR quantity_in_stock <= 0)"})
		}
	}
	if f.PricePositive != nil {
		if *f.PricePositive {
			preds = append(preds, Predicate{Expr: "price > 0"})
		} else {
			preds = append(preds, Predicate{Expr: "(price IS NULL OR price <= 0)"})
		}
	}
	if f.Discontinued != nil {
		preds = append(preds, Predicate{Expr: "discontinued = ?", Args: []interface{}{*f.Discontinued}})
	}
	if f.NeedsVerification != nil {
		preds = append(preds, Predicate{Expr: "needs_verification = ?", Args: []interface{}{*f.NeedsVerification}})
	}
	if f.HasFavorite != nil {
		needsMeta = true
		if *f.HasFavorite {
			preds = append(preds, Predicate{Expr: hasFavoriteExpr + " = 0"})
		} else {
			preds = append(preds, Predicate{Expr: hasFavoriteExpr + " = 1"})
		}
	}
	if f.ForReorder != nil {
		if *f.ForReorder {
			preds = append(preds, Predicate{Expr: forReorderExpr + " = 0"})
		} else {
			preds = append(preds, Predicate{Expr: forReorderExpr + " = 1"})
		}
	}

	return preds, needsMeta, nil
}
