package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"insurecow/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditRepository interface {
	// Record appends an audit row. changes is marshalled into the JSON column.
	Record(ctx context.Context, actorID *uint, modelName string, instanceID uint, action string, changes interface{}) error
	ListForInstance(ctx context.Context, modelName string, instanceID uint) ([]models.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, actorID *uint, modelName string, instanceID uint, action string, changes interface{}) error {
	var payload datatypes.JSON
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("failed to encode audit changes: %w", err)
		}
		payload = datatypes.JSON(raw)
	}

	entry := &models.AuditLog{
		CredentialID: actorID,
		ModelName:    modelName,
		InstanceID:   instanceID,
		Action:       action,
		Timestamp:    time.Now(),
		Changes:      payload,
	}
	if err := r.db.WithContext(ctx).Omit("Credential").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListForInstance(ctx context.Context, modelName string, instanceID uint) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("model_name = ? AND instance_id = ?", modelName, instanceID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return out, nil
}
