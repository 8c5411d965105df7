package repositories

import (
	"context"
	"fmt"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingRegistrationRepository interface {
	// GetByMobile returns nil, nil when no row exists.
	GetByMobile(ctx context.Context, mobile string) (*models.PendingRegistration, error)
	// GetByMobileAndCode fails with ErrOTPInvalid when no row matches exactly.
	GetByMobileAndCode(ctx context.Context, mobile, code string) (*models.PendingRegistration, error)
	// GetVerified fails with ErrOTPNotVerified when no verified row exists.
	GetVerified(ctx context.Context, mobile string) (*models.PendingRegistration, error)
	ExistsVerified(ctx context.Context, mobile string) (bool, error)
	Save(ctx context.Context, p *models.PendingRegistration) error
	Delete(ctx context.Context, id uint) error
}

type pendingRegistrationRepository struct {
	db *gorm.DB
}

func NewPendingRegistrationRepository(db *gorm.DB) PendingRegistrationRepository {
	return &pendingRegistrationRepository{db: db}
}

func (r *pendingRegistrationRepository) GetByMobile(ctx context.Context, mobile string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("mobile_number = ?", mobile).First(&p).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending registration: %w", err)
	}
	return &p, nil
}

func (r *pendingRegistrationRepository) GetByMobileAndCode(ctx context.Context, mobile, code string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("mobile_number = ? AND otp = ?", mobile, code).First(&p).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to get pending registration: %w", err)
	}
	return &p, nil
}

func (r *pendingRegistrationRepository) GetVerified(ctx context.Context, mobile string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("mobile_number = ? AND is_verified = ?", mobile, true).First(&p).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrOTPNotVerified
		}
		return nil, fmt.Errorf("failed to get pending registration: %w", err)
	}
	return &p, nil
}

func (r *pendingRegistrationRepository) ExistsVerified(ctx context.Context, mobile string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PendingRegistration{}).
		Where("mobile_number = ? AND is_verified = ?", mobile, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending registration: %w", err)
	}
	return count > 0, nil
}

// Save inserts p when it has no id and otherwise updates every column.
func (r *pendingRegistrationRepository) Save(ctx context.Context, p *models.PendingRegistration) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save pending registration: %w", err)
	}
	return nil
}

func (r *pendingRegistrationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.PendingRegistration{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete pending registration: %w", err)
	}
	return nil
}
