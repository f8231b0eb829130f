package database

import (
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
)

// DefaultUnits is the canonical unit set seeded at startup.
var DefaultUnits = []string{
	"PCS", "PAIR", "SET", "KIT", "ORGANISER", "BOX",
	"MM", "CM", "M", "LTR", "ML", "CAN", "KGM", "ROLL",
}

// ColumnCatalog lists the item columns that may be restricted to purchase
// admins. Always-visible columns (location, group, name, part description,
// part number, units, quantity) are excluded.
var ColumnCatalog = []models.InventoryColumn{
	{FieldName: "dcm_number", ShortLabel: "DCM", FullLabel: "DCM Number"},
	{FieldName: "oem_name", ShortLabel: "OEM", FullLabel: "OEM Name"},
	{FieldName: "oem_number", ShortLabel: "OEM No", FullLabel: "OEM Number"},
	{FieldName: "vendor", ShortLabel: "Vendor", FullLabel: "Vendor"},
	{FieldName: "source_location", ShortLabel: "Source", FullLabel: "Source Location"},
	{FieldName: "price", ShortLabel: "Price", FullLabel: "Price"},
	{FieldName: "reorder_level", ShortLabel: "Reorder Lvl", FullLabel: "Reorder Level"},
	{FieldName: "reorder_time_days", ShortLabel: "Reorder Days", FullLabel: "Reorder Time in Days"},
	{FieldName: "quantity_in_reorder", ShortLabel: "On Reorder", FullLabel: "Quantity in Reorder"},
	{FieldName: "discontinued", ShortLabel: "Disc", FullLabel: "Discontinued?"},
}

var defaultJobStates = []models.JobState{
	{ShortName: "OPEN", FullName: "Open"},
	{ShortName: "IN_PROGRESS", FullName: "In Progress"},
	{ShortName: "WAITING_PARTS", FullName: "Waiting for Parts"},
	{ShortName: "DONE", FullName: "Done"},
}

// Seed creates the reference data and singleton rows the application expects.
// It replaces the old migration-signal side effects with one explicit,
// idempotent bootstrap invoked at process startup.
func Seed(db *gorm.DB) error {
	for _, code := range DefaultUnits {
		unit := models.Unit{Code: code}
		if err := db.Where(models.Unit{Code: code}).FirstOrCreate(&unit).Error; err != nil {
			return err
		}
	}

	for _, col := range ColumnCatalog {
		existing := models.InventoryColumn{}
		if err := db.Where(models.InventoryColumn{FieldName: col.FieldName}).
			Attrs(col).FirstOrCreate(&existing).Error; err != nil {
			return err
		}
	}

	for _, state := range defaultJobStates {
		existing := models.JobState{}
		if err := db.Where(models.JobState{ShortName: state.ShortName}).
			Attrs(state).FirstOrCreate(&existing).Error; err != nil {
			return err
		}
	}

	// Singleton rows. The unique guard column makes concurrent creation
	// attempts collapse to a single row.
	singletons := []interface{}{
		&models.InventorySettings{Singleton: 1, RestrictedColumns: models.StringArray{}},
		&models.EditCondition{Singleton: 1, OnlyLastWLEditable: true},
		&models.StandardWorkHours{Singleton: 1, StartTime: "08:00", EndTime: "17:00"},
		&models.WorklogEmailSettings{Singleton: 1, Users: models.StringArray{}},
		&models.AdminEmailSettings{Singleton: 1, SMTPPort: 587, UseTLS: true, TimeoutSecs: 30},
	}
	for _, s := range singletons {
		if err := db.Where("singleton = ?", 1).FirstOrCreate(s).Error; err != nil {
			return err
		}
	}

	return nil
}
