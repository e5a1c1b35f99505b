package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;index" json:"user_id,omitempty"`
	Action       string    `gorm:"size:100;not null;index" json:"action"`
	ResourceType string    `gorm:"size:50;not null;index" json:"resource_type"`
	ResourceID   string    `gorm:"size:255" json:"resource_id"`
	IPAddress    string    `gorm:"size:45" json:"ip_address"`
	UserAgent    string    `gorm:"type:text" json:"user_agent,omitempty"`
	TenantID     string    `gorm:"size:255;index" json:"tenant_id,omitempty"`
	Severity     string    `gorm:"size:20;default:info" json:"severity"` // info, warning, error, critical
	Success      bool      `gorm:"default:true" json:"success"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
