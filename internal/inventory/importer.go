package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stockbrain-system/internal/database/models"
)

// importColumns is the expected CSV header, matching the historical
// spreadsheet export.
var importColumns = []string{
	"Localization", "Group", "Name", "Part Description", "Part Number",
	"DCM Number", "OEM Name", "OEM Number", "Vendor", "Source Location",
	"Units", "Quantity in Stock", "Price", "Reorder Level",
	"Reorder Time in Days", "Quantity in Reorder", "Discontinued?",
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	// Spreadsheets often export integers as 3.0.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

func parseOptionalDecimal(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

func parseDiscontinued(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "1", "true", "t":
		return true
	}
	return false
}

// ParseLocalization splits a "1-B-1" style token into rack, shelf, box.
func ParseLocalization(raw string) (rack int, shelf, box string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return 0, "", "", fmt.Errorf("invalid localization %q", raw)
	}
	rack, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid rack in localization %q", raw)
	}
	shelf = strings.ToUpper(strings.TrimSpace(parts[1]))
	box = strings.TrimSpace(parts[2])
	if len(shelf) != 1 || box == "" {
		return 0, "", "", fmt.Errorf("invalid localization %q", raw)
	}
	return rack, shelf, box, nil
}

// ParseImport reads a CSV export into inventory items. The whole batch is
// parsed up front so the caller can persist it all-or-nothing: any bad row
// fails the import with its row number, and nothing is committed.
func ParseImport(r io.Reader) ([]models.InventoryItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	allowed := make(map[string]struct{}, len(importColumns))
	for _, name := range importColumns {
		allowed[name] = struct{}{}
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := allowed[name]; !ok {
			return nil, fmt.Errorf("unrecognized column %q", name)
		}
		colIdx[name] = i
	}
	for _, required := range []string{"Localization", "Name"} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var items []models.InventoryItem
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		rack, shelf, box, err := ParseLocalization(field(record, "Localization"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		items = append(items, models.InventoryItem{
			Rack:              rack,
			Shelf:             shelf,
			Box:               box,
			GroupName:         field(record, "Group"),
			Name:              field(record, "Name"),
			PartDescription:   field(record, "Part Description"),
			PartNumber:        field(record, "Part Number"),
			DcmNumber:         field(record, "DCM Number"),
			OemName:           field(record, "OEM Name"),
			OemNumber:         field(record, "OEM Number"),
			Vendor:            field(record, "Vendor"),
			SourceLocation:    field(record, "Source Location"),
			Units:             field(record, "Units"),
			QuantityInStock:   parseOptionalInt(field(record, "Quantity in Stock")),
			Price:             parseOptionalDecimal(field(record, "Price")),
			ReorderLevel:      parseOptionalInt(field(record, "Reorder Level")),
			ReorderTimeDays:   parseOptionalInt(field(record, "Reorder Time in Days")),
			QuantityInReorder: parseOptionalInt(field(record, "Quantity in Reorder")),
			Discontinued:      parseDiscontinued(field(record, "Discontinued?")),
			Condition:         models.ConditionNew,
		})
	}

	return items, nil
}
