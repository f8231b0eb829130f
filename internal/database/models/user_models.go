package models

import "time"

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Firstname string
	Lastname  string
	// Role names, e.g. purchase_admin. Plain strings so new roles need no
	// schema change.
	Roles     StringArray `gorm:"type:jsonb;not null;default:'[]'"`
	IsActive  bool        `gorm:"default:true"`
	LastLogin *time.Time
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Profile *UserProfile `gorm:"foreignKey:UserID"`
}

func (u *User) HasRole(role string) bool {
	return u.Roles.Contains(role)
}

type UserProfile struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	UserID          int64  `gorm:"uniqueIndex;not null"`
	PreferredName   string `gorm:"size:255"`
	PreferDarkTheme bool   `gorm:"not null;default:true"`
	AfterLoginGoToWL bool  `gorm:"not null;default:true"`
	PreviousLogin   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
