package models

import (
	"encoding/json"
	"time"
)

// Session binds a server-minted identifier to the credential that created
// it. CredentialID never changes after creation; ExpiresAt is always
// LastAccessedAt plus the configured TTL.
type Session struct {
	SessionID      string          `gorm:"primaryKey" json:"session_id"`
	CredentialID   string          `gorm:"index;not null" json:"credential_id"`
	OwnerIdentity  string          `json:"owner_identity"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	ExpiresAt      time.Time       `gorm:"index" json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (Session) TableName() string {
	return sessionsTable
}
