package repositories

import (
	"context"
	"fmt"
	"time"

	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OTPRepository interface {
	// GetLimit returns nil, nil when the category has no configured limit.
	GetLimit(ctx context.Context, category models.OTPCategory) (*models.OTPLimit, error)
	// SeedLimit inserts limit when its category is not configured yet.
	SeedLimit(ctx context.Context, limit *models.OTPLimit) error
	CountRequestsSince(ctx context.Context, mobile string, category models.OTPCategory, since time.Time) (int64, error)
	// CreateRequest appends a log row together with its unverified verification record.
	CreateRequest(ctx context.Context, entry *models.OTPRequestLog) (*models.OTPVerification, error)
	// LatestRequest returns the newest log row for mobile, or nil when there is none.
	LatestRequest(ctx context.Context, mobile string) (*models.OTPRequestLog, error)
	// OutstandingVerification returns the newest unverified record of a log row, or nil.
	OutstandingVerification(ctx context.Context, logID uint) (*models.OTPVerification, error)
	MarkVerified(ctx context.Context, id uint, at time.Time) error
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) GetLimit(ctx context.Context, category models.OTPCategory) (*models.OTPLimit, error) {
	var limit models.OTPLimit
	if err := r.db.WithContext(ctx).Where("category = ?", category).First(&limit).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get otp limit: %w", err)
	}
	return &limit, nil
}

func (r *otpRepository) SeedLimit(ctx context.Context, limit *models.OTPLimit) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "category"}}, DoNothing: true}).
		Create(limit).Error
	if err != nil {
		return fmt.Errorf("failed to seed otp limit %q: %w", limit.Category, err)
	}
	return nil
}

func (r *otpRepository) CountRequestsSince(ctx context.Context, mobile string, category models.OTPCategory, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OTPRequestLog{}).
		Where("mobile_number = ? AND category = ? AND created_at >= ?", mobile, category, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count otp requests: %w", err)
	}
	return count, nil
}

func (r *otpRepository) CreateRequest(ctx context.Context, entry *models.OTPRequestLog) (*models.OTPVerification, error) {
	var v *models.OTPVerification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to log otp request: %w", err)
		}
		v = &models.OTPVerification{OTPRequestLogID: entry.ID}
		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return fmt.Errorf("failed to create otp verification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *otpRepository) LatestRequest(ctx context.Context, mobile string) (*models.OTPRequestLog, error) {
	var entry models.OTPRequestLog
	err := r.db.WithContext(ctx).
		Where("mobile_number = ?", mobile).
		Order("created_at DESC").Order("id DESC").
		First(&entry).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get otp request: %w", err)
	}
	return &entry, nil
}

func (r *otpRepository) OutstandingVerification(ctx context.Context, logID uint) (*models.OTPVerification, error) {
	var v models.OTPVerification
	err := r.db.WithContext(ctx).
		Where("otp_request_log_id = ? AND is_verified = ?", logID, false).
		Order("id DESC").
		First(&v).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get otp verification: %w", err)
	}
	return &v, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.OTPVerification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_verified": true, "verified_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to mark otp verified: %w", err)
	}
	return nil
}
