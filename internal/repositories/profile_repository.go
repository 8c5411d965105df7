package repositories

import (
	"context"
	"fmt"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	// Scaffold creates the empty sub-records of a new credential.
	Scaffold(ctx context.Context, credentialID uint, withOrganization bool) error
	// Get loads the sub-record of credentialID into dest, failing with ErrProfileNotFound.
	Get(ctx context.Context, credentialID uint, dest interface{}) error
	// Save updates every business column of a loaded sub-record.
	Save(ctx context.Context, record interface{}) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Scaffold(ctx context.Context, credentialID uint, withOrganization bool) error {
	records := []interface{}{
		&models.PersonalInfo{CredentialID: credentialID},
		&models.FinancialInfo{CredentialID: credentialID},
		&models.NomineeInfo{CredentialID: credentialID},
	}
	if withOrganization {
		records = append(records, &models.OrganizationInfo{CredentialID: credentialID})
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "credential_id"}}, DoNothing: true}
	for _, rec := range records {
		if err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(onConflict).Create(rec).Error; err != nil {
			return fmt.Errorf("failed to scaffold profile: %w", err)
		}
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, credentialID uint, dest interface{}) error {
	if err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(dest).Error; err != nil {
		if isNotFound(err) {
			return apperrors.ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Save(ctx context.Context, record interface{}) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
