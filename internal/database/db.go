package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"stockbrain-system/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Unit{},
		&models.ItemGroup{},
		&models.InventoryItem{},
		&models.InventoryColumn{},
		&models.InventorySettings{},
		&models.InventoryUserMeta{},
		&models.ImportJob{},
		&models.VehicleLocation{},
		&models.JobState{},
		&models.StandardWorkHours{},
		&models.EditCondition{},
		&models.WorkLog{},
		&models.WorkLogEntry{},
		&models.WorkLogEntryStateChange{},
		&models.WorklogEmailSettings{},
		&models.AdminEmailSettings{},
		&models.QuoteCategory{},
		&models.Quote{},
	)
}
