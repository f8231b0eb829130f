package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Condition status values carried by inventory items.
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
	ConditionDamaged     = "damaged"
)

type Unit struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"size:20;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ItemGroup struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InventoryItem struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// Physical location split into three columns. Shelf is stored uppercase.
	Rack  int    `gorm:"not null;index:idx_items_location,priority:1"`
	Shelf string `gorm:"size:1;not null;index:idx_items_location,priority:2"`
	Box   string `gorm:"size:50;not null;index:idx_items_location,priority:3"`

	GroupName string `gorm:"size:100"`
	GroupID   *int32
	Group     *ItemGroup `gorm:"foreignKey:GroupID"`

	Name            string `gorm:"size:100;not null"`
	PartDescription string `gorm:"size:255"`
	PartNumber      string `gorm:"size:100"`
	DcmNumber       string `gorm:"size:100"`
	OemName         string `gorm:"size:100"`
	OemNumber       string `gorm:"size:100"`
	Vendor          string `gorm:"size:100"`
	SourceLocation  string `gorm:"size:100"`

	// Legacy free-text unit kept in sync with the FK on edit.
	Units  string `gorm:"size:50"`
	UnitID *int32
	Unit   *Unit `gorm:"foreignKey:UnitID"`

	QuantityInStock   *int
	Price             *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ReorderLevel      *int
	ReorderTimeDays   *int
	QuantityInReorder *int
	Discontinued      bool   `gorm:"not null;default:false"`
	NeedsVerification bool   `gorm:"not null;default:false"`
	Condition         string `gorm:"size:20;not null;default:'new'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeShelf keeps the shelf column uppercase on every write path.
func (i *InventoryItem) NormalizeShelf() {
	i.Shelf = strings.ToUpper(i.Shelf)
}

// ForReorder is derived and never persisted. Null-safe: false when either
// operand is missing or the item is discontinued.
func (i *InventoryItem) ForReorder() bool {
	if i.QuantityInStock == nil || i.ReorderLevel == nil || i.Discontinued {
		return false
	}
	return *i.QuantityInStock <= *i.ReorderLevel
}

// LocalizationStr rebuilds the 8--A--1 style location string.
func (i *InventoryItem) LocalizationStr() string {
	return fmt.Sprintf("%d--%s--%s", i.Rack, strings.ToUpper(i.Shelf), i.Box)
}

// InventoryColumn catalogs the item columns that can be restricted to the
// purchase admin role. Labels are admin-editable.
type InventoryColumn struct {
	ID          int32  `gorm:"primaryKey;autoIncrement"`
	FieldName   string `gorm:"size:50;uniqueIndex;not null"`
	ShortLabel  string `gorm:"size:50"`
	FullLabel   string `gorm:"size:100"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InventorySettings is the singleton holding the subset of columns visible
// only to purchase admins.
type InventorySettings struct {
	ID                int32       `gorm:"primaryKey;autoIncrement"`
	Singleton         int16       `gorm:"uniqueIndex;not null;default:1"`
	RestrictedColumns StringArray `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Favorite colors accepted by the per-user overlay.
var FavoriteColors = []string{"RED", "GREEN", "BLUE", "YELLOW", "ORANGE", "PURPLE"}

func IsFavoriteColor(color string) bool {
	for _, c := range FavoriteColors {
		if c == color {
			return true
		}
	}
	return false
}

// InventoryUserMeta is the per-(user,item) overlay: favorite color and note.
// Created lazily on first write, never pre-populated.
type InventoryUserMeta struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	UserID        int64 `gorm:"not null;uniqueIndex:idx_user_item,priority:1"`
	ItemID        int64 `gorm:"not null;uniqueIndex:idx_user_item,priority:2"`
	FavoriteColor string `gorm:"size:20"`
	Note          string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	User *User          `gorm:"foreignKey:UserID"`
	Item *InventoryItem `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// ImportJob records a bulk import run.
type ImportJob struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"size:255;not null"`
	SourceLocation string `gorm:"size:512"`
	CreatedBy      int64  `gorm:"not null"`
	RowsCreated    int    `gorm:"not null;default:0"`
	RowsTotal      int    `gorm:"not null;default:0"`
	LastStatus     string `gorm:"size:255"`
	CreatedAt      time.Time
}
