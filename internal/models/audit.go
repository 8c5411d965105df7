package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// AuditLog keeps its row when the acting credential is deleted.
type AuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CredentialID *uint          `gorm:"index" json:"user_id"`
	Credential   *Credential    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ModelName    string         `gorm:"size:255;not null" json:"model_name"`
	InstanceID   uint           `gorm:"not null" json:"instance_id"`
	Action       string         `gorm:"size:10;not null" json:"action"`
	Timestamp    time.Time      `gorm:"index;not null" json:"timestamp"`
	Changes      datatypes.JSON `json:"changes"`
}
