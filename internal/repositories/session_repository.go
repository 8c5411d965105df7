package repositories

import (
	"context"
	"fmt"

	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	// GetOrCreate returns the credential's session, creating an empty one when missing.
	GetOrCreate(ctx context.Context, credentialID uint) (*models.Session, error)
	// GetByCredential returns nil, nil when the credential has no session.
	GetByCredential(ctx context.Context, credentialID uint) (*models.Session, error)
	// SaveTokens writes both tokens in a single UPDATE.
	SaveTokens(ctx context.Context, sessionID uint, access, refresh string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetOrCreate(ctx context.Context, credentialID uint) (*models.Session, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "credential_id"}}, DoNothing: true}).
		Create(&models.Session{CredentialID: credentialID}).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var s models.Session
	if err := db.Where("credential_id = ?", credentialID).First(&s).Error; err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepository) GetByCredential(ctx context.Context, credentialID uint) (*models.Session, error) {
	var s models.Session
	if err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&s).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepository) SaveTokens(ctx context.Context, sessionID uint, access, refresh string) error {
	err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{"access_token": access, "refresh_token": refresh}).Error
	if err != nil {
		return fmt.Errorf("failed to save session tokens: %w", err)
	}
	return nil
}
