package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive    = "active"
	StatusBlocked   = "blocked"
	StatusSuspended = "suspended"
)

// Account is an API consumer. The plaintext key is shown once at signup;
// only its hash is stored.
type Account struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `json:"name"`
	KeyHash      string     `gorm:"uniqueIndex;not null" json:"-"`
	Status       string     `gorm:"default:'active'" json:"status"`
	Tier         string     `gorm:"default:'free'" json:"tier"`
	RequestCount int64      `gorm:"default:0" json:"request_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Account) TableName() string {
	return accountsTable
}
