package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageLog records one dispatched JSON-RPC call. Appends are fire-and-forget;
// a lost row never fails the call it describes.
type UsageLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time  `gorm:"index" json:"timestamp"`
	AccountID  *uuid.UUID `gorm:"index" json:"account_id,omitempty"`
	SessionID  string     `json:"session_id"`
	Method     string     `json:"method"`
	Tool       string     `gorm:"index" json:"tool,omitempty"`
	Succeeded  bool       `json:"succeeded"`
	ErrorCode  int        `json:"error_code,omitempty"`
	DurationMs int        `json:"duration_ms"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
}

func (UsageLog) TableName() string {
	return usageLogsTable
}
