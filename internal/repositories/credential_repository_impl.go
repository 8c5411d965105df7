package repositories

import (
	"context"
	"fmt"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/repositories/cache"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type credentialRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
	// hooks is set inside a transaction; reads then skip the cache and
	// invalidation waits for the commit.
	hooks *commitHooks
}

// NewCredentialRepository creates a new instance of CredentialRepository
func NewCredentialRepository(db *gorm.DB, cacheSvc *cache.CacheService, hooks *commitHooks) CredentialRepository {
	return &credentialRepository{
		db:    db,
		cache: cacheSvc,
		hooks: hooks,
	}
}

func (r *credentialRepository) Create(ctx context.Context, c *models.Credential) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperrors.ErrMobileTaken.Wrap(err)
		}
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return err
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id uint) (*models.Credential, error) {
	if r.hooks == nil {
		if c, err := r.cache.GetCredential(ctx, id); err == nil {
			return c, nil
		}
	}

	var c models.Credential
	if err := r.db.WithContext(ctx).Preload("Role").First(&c, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	if r.hooks == nil {
		if err := r.cache.CacheCredential(ctx, &c); err != nil {
			log.WithError(err).WithField("credential_id", id).Warn("failed to cache credential")
		}
	}
	return &c, nil
}

func (r *credentialRepository) GetByMobile(ctx context.Context, mobile string) (*models.Credential, error) {
	var c models.Credential
	if err := r.db.WithContext(ctx).Preload("Role").Where("mobile_number = ?", mobile).First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

func (r *credentialRepository) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Credential{}).Where("mobile_number = ?", mobile).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check credential: %w", err)
	}
	return count > 0, nil
}

func (r *credentialRepository) Save(ctx context.Context, c *models.Credential) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error; err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return err
		}
		return fmt.Errorf("failed to save credential: %w", err)
	}
	r.invalidate(ctx, c.ID)
	return nil
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&models.Credential{}).Where("id = ?", id).UpdateColumn("password", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCredentialNotFound
	}
	return nil
}

func (r *credentialRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Credential{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

func (r *credentialRepository) ListManagedBy(ctx context.Context, managerID uint) ([]models.Credential, error) {
	var out []models.Credential
	err := r.db.WithContext(ctx).Preload("Role").
		Where("managed_by_id = ?", managerID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-users: %w", err)
	}
	return out, nil
}

func (r *credentialRepository) List(ctx context.Context, offset, limit int) ([]models.Credential, int64, error) {
	var total int64
	db := r.db.WithContext(ctx).Model(&models.Credential{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count credentials: %w", err)
	}

	var out []models.Credential
	if err := r.db.WithContext(ctx).Preload("Role").Order("id").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list credentials: %w", err)
	}
	return out, total, nil
}

func (r *credentialRepository) EvictRole(ctx context.Context, roleID uint) error {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Credential{}).Where("role_id = ?", roleID).Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to list credentials of role: %w", err)
	}
	r.invalidate(ctx, ids...)
	return nil
}

// invalidate drops the cached projections of ids, after the commit when
// running inside a transaction.
func (r *credentialRepository) invalidate(ctx context.Context, ids ...uint) {
	if r.cache == nil || len(ids) == 0 {
		return
	}
	r.hooks.after(ctx, func(ctx context.Context) {
		if err := r.cache.InvalidateCredentials(ctx, ids...); err != nil {
			log.WithError(err).WithField("credential_ids", ids).Warn("failed to invalidate cached credentials")
		}
	})
}
