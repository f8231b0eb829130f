package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle/location types referenced by work log entries.
const (
	LocationTypeCameleon = "cameleon"
	LocationTypeCondor   = "condor"
	LocationTypeOutdoor  = "outdoor"
	LocationTypeOffice   = "office"
)

type VehicleLocation struct {
	ID           int32  `gorm:"primaryKey;autoIncrement"`
	LocationType string `gorm:"size:20;not null;default:'cameleon'"`
	Name         string `gorm:"size:255;not null"`
	ShortNumber  string `gorm:"size:64"`
	FullNumber   string `gorm:"size:128"`
	Description  string `gorm:"type:text"`
	SortIndex    int    `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobState is a data-driven catalog, not a fixed enum. New states are added
// by inserting rows.
type JobState struct {
	ID          int32  `gorm:"primaryKey;autoIncrement"`
	ShortName   string `gorm:"size:64;uniqueIndex;not null"`
	FullName    string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StandardWorkHours is the singleton default applied when a work log omits
// explicit start/end times.
type StandardWorkHours struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Singleton int16  `gorm:"uniqueIndex;not null;default:1"`
	StartTime string `gorm:"size:5;not null"` // HH:MM, 24h
	EndTime   string `gorm:"size:5;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EditCondition is the singleton global edit policy for work logs.
type EditCondition struct {
	ID                 int32 `gorm:"primaryKey;autoIncrement"`
	Singleton          int16 `gorm:"uniqueIndex;not null;default:1"`
	OnlyLastWLEditable bool  `gorm:"not null;default:true"`
	// Hours since creation during which edits are allowed. 0 = no limit.
	EditableTimeSinceCreated int `gorm:"not null;default:0"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type WorkLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	DueDate   time.Time `gorm:"type:date;not null"`
	AuthorID  int64     `gorm:"not null;index"`
	Author    *User     `gorm:"foreignKey:AuthorID"`
	WLNumber  string    `gorm:"size:128;uniqueIndex;not null"`
	StartTime string    `gorm:"size:5"` // HH:MM, empty = never resolved
	EndTime   string    `gorm:"size:5"`
	Notes     string    `gorm:"type:text"`

	EmailPending     bool   `gorm:"not null;default:false"`
	EmailEvent       string `gorm:"size:10"` // new or edit, whichever queued the mail
	EmailScheduledAt *time.Time
	EmailSentAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Entries []WorkLogEntry `gorm:"foreignKey:WorkLogID;constraint:OnDelete:CASCADE"`
}

type WorkLogEntry struct {
	ID                int64            `gorm:"primaryKey;autoIncrement"`
	WorkLogID         int64            `gorm:"not null;index"`
	VehicleLocationID int32            `gorm:"not null"`
	VehicleLocation   *VehicleLocation `gorm:"foreignKey:VehicleLocationID"`
	JobDescription    string           `gorm:"type:text;not null"`
	StateID           int32            `gorm:"not null"`
	State             *JobState        `gorm:"foreignKey:StateID"`

	// Part location snapshot. Deliberately plain text rather than an item FK
	// so deleting inventory never cascades into historical work logs.
	PartRack  string `gorm:"size:10"`
	PartShelf string `gorm:"size:1"`
	PartBox   string `gorm:"size:50"`

	PartDescription string           `gorm:"type:text"`
	UnitID          *int32
	Unit            *Unit            `gorm:"foreignKey:UnitID"`
	Quantity        *decimal.Decimal `gorm:"type:decimal(10,2)"`
	TimeHours       decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	Notes           string           `gorm:"type:text"`

	CreatedAt time.Time
}

// WorkLogEntryStateChange is an append-only audit log. One row per actual
// transition; same-state requests must not write here.
type WorkLogEntryStateChange struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	EntryID    int64     `gorm:"not null;index"`
	OldStateID *int32
	OldState   *JobState `gorm:"foreignKey:OldStateID"`
	NewStateID int32     `gorm:"not null"`
	NewState   *JobState `gorm:"foreignKey:NewStateID"`
	ChangedBy  int64     `gorm:"not null"`
	ChangedAt  time.Time `gorm:"autoCreateTime"`
}

// WorklogEmailSettings is the singleton e-mail dispatch policy. Users holds
// the usernames whose work logs trigger e-mails; empty means every author.
type WorklogEmailSettings struct {
	ID                  int32       `gorm:"primaryKey;autoIncrement"`
	Singleton           int16       `gorm:"uniqueIndex;not null;default:1"`
	SendNew             bool        `gorm:"not null;default:false"`
	SendEdit            bool        `gorm:"not null;default:false"`
	RecipientEmail      string      `gorm:"size:255"`
	EnableScheduledSend bool        `gorm:"not null;default:false"`
	Users               StringArray `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AdminEmailSettings is the singleton SMTP transport configuration.
type AdminEmailSettings struct {
	ID           int32  `gorm:"primaryKey;autoIncrement"`
	Singleton    int16  `gorm:"uniqueIndex;not null;default:1"`
	SMTPHost     string `gorm:"size:255"`
	SMTPPort     int    `gorm:"not null;default:587"`
	UseTLS       bool   `gorm:"not null;default:true"`
	UseSSL       bool   `gorm:"not null;default:false"`
	SMTPUsername string `gorm:"size:255"`
	SMTPPassword string `gorm:"size:255"`
	FromEmail    string `gorm:"size:255"`
	TimeoutSecs  int    `gorm:"not null;default:30"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
