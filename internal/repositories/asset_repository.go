package repositories

import (
	"context"
	"fmt"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) error
	GetByID(ctx context.Context, id uint) (*models.Asset, error)
	// List returns every asset when ownerID is nil, otherwise the assets of that owner.
	List(ctx context.Context, ownerID *uint) ([]models.Asset, error)
	Save(ctx context.Context, a *models.Asset) error
	Delete(ctx context.Context, id uint) error
}

type assetRepository struct {
	db *gorm.DB
}

// withReferences loads the lookup entries an asset points at.
func withReferences(db *gorm.DB) *gorm.DB {
	return db.Preload("AssetType").
		Preload("Breed").
		Preload("Color").
		Preload("VaccinationStatus").
		Preload("DewormingStatus")
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, a *models.Asset) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	var a models.Asset
	if err := withReferences(r.db.WithContext(ctx)).First(&a, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &a, nil
}

func (r *assetRepository) List(ctx context.Context, ownerID *uint) ([]models.Asset, error) {
	var out []models.Asset
	q := withReferences(r.db.WithContext(ctx)).Order("id")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return out, nil
}

func (r *assetRepository) Save(ctx context.Context, a *models.Asset) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error; err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (r *assetRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Asset{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete asset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}
