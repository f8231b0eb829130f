package models

import "time"

type QuoteCategory struct {
	ID          int32  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:120;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Quote struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	CategoryID int32          `gorm:"not null;index"`
	Category   *QuoteCategory `gorm:"foreignKey:CategoryID"`
	CreatedBy  int64          `gorm:"not null"`
	Author     *User          `gorm:"foreignKey:CreatedBy"`
	Text       string         `gorm:"type:text;not null"`
	CreatedAt  time.Time
}
