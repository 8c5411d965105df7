package repositories

import (
	"context"
	"fmt"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsuranceRepository stores insurance companies, their products, the
// insurances taken on assets and the claims filed against them.
type InsuranceRepository interface {
	CreateCompany(ctx context.Context, c *models.InsuranceCompany) error
	GetCompany(ctx context.Context, id uint) (*models.InsuranceCompany, error)
	GetCompanyByCredential(ctx context.Context, credentialID uint) (*models.InsuranceCompany, error)
	ListCompanies(ctx context.Context) ([]models.InsuranceCompany, error)
	// RenameCompany is a no-op when the credential owns no company.
	RenameCompany(ctx context.Context, credentialID uint, name string) error

	GetOrCreateCategory(ctx context.Context, companyID uint, name string) (*models.InsuranceCategory, error)
	GetOrCreateType(ctx context.Context, category *models.InsuranceCategory, name, description string) (*models.InsuranceType, error)
	GetOrCreatePeriod(ctx context.Context, category *models.InsuranceCategory, name string, months int) (*models.InsurancePeriod, error)
	// UpsertProduct keys on company, category, type and period and refreshes
	// the premium and description of an existing row.
	UpsertProduct(ctx context.Context, p *models.InsuranceProduct) error
	GetProduct(ctx context.Context, id uint) (*models.InsuranceProduct, error)
	ListProducts(ctx context.Context) ([]models.InsuranceProduct, error)

	CreateAssetInsurance(ctx context.Context, a *models.AssetInsurance) error
	GetAssetInsurance(ctx context.Context, id uint) (*models.AssetInsurance, error)
	ListAssetInsurances(ctx context.Context, assetID uint) ([]models.AssetInsurance, error)
	// HasActiveCover reports whether an active insurance of the asset overlaps the range.
	HasActiveCover(ctx context.Context, assetID uint, start, end time.Time) (bool, error)

	CreateClaim(ctx context.Context, c *models.InsuranceClaim) error
	GetClaim(ctx context.Context, id uint) (*models.InsuranceClaim, error)
	ListClaims(ctx context.Context, assetInsuranceID uint) ([]models.InsuranceClaim, error)
	SaveClaim(ctx context.Context, c *models.InsuranceClaim) error
}

type insuranceRepository struct {
	db *gorm.DB
}

func NewInsuranceRepository(db *gorm.DB) InsuranceRepository {
	return &insuranceRepository{db: db}
}

func (r *insuranceRepository) CreateCompany(ctx context.Context, c *models.InsuranceCompany) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create insurance company: %w", err)
	}
	return nil
}

func (r *insuranceRepository) GetCompany(ctx context.Context, id uint) (*models.InsuranceCompany, error) {
	var c models.InsuranceCompany
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInsuranceCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get insurance company: %w", err)
	}
	return &c, nil
}

func (r *insuranceRepository) GetCompanyByCredential(ctx context.Context, credentialID uint) (*models.InsuranceCompany, error) {
	var c models.InsuranceCompany
	if err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInsuranceCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get insurance company: %w", err)
	}
	return &c, nil
}

func (r *insuranceRepository) ListCompanies(ctx context.Context) ([]models.InsuranceCompany, error) {
	var out []models.InsuranceCompany
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list insurance companies: %w", err)
	}
	return out, nil
}

func (r *insuranceRepository) RenameCompany(ctx context.Context, credentialID uint, name string) error {
	err := r.db.WithContext(ctx).Model(&models.InsuranceCompany{}).
		Where("credential_id = ?", credentialID).
		Update("name", name).Error
	if err != nil {
		return fmt.Errorf("failed to rename insurance company: %w", err)
	}
	return nil
}

func (r *insuranceRepository) GetOrCreateCategory(ctx context.Context, companyID uint, name string) (*models.InsuranceCategory, error) {
	var c models.InsuranceCategory
	err := r.db.WithContext(ctx).
		Where(models.InsuranceCategory{CompanyID: companyID, Name: name}).
		FirstOrCreate(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create insurance category: %w", err)
	}
	return &c, nil
}

func (r *insuranceRepository) GetOrCreateType(ctx context.Context, category *models.InsuranceCategory, name, description string) (*models.InsuranceType, error) {
	var t models.InsuranceType
	err := r.db.WithContext(ctx).
		Where(models.InsuranceType{CompanyID: category.CompanyID, CategoryID: category.ID, Name: name}).
		Attrs(models.InsuranceType{Description: description}).
		FirstOrCreate(&t).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create insurance type: %w", err)
	}
	return &t, nil
}

func (r *insuranceRepository) GetOrCreatePeriod(ctx context.Context, category *models.InsuranceCategory, name string, months int) (*models.InsurancePeriod, error) {
	var p models.InsurancePeriod
	err := r.db.WithContext(ctx).
		Where(models.InsurancePeriod{CompanyID: category.CompanyID, CategoryID: category.ID, Name: name}).
		Attrs(models.InsurancePeriod{Months: months}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create insurance period: %w", err)
	}
	return &p, nil
}

func (r *insuranceRepository) UpsertProduct(ctx context.Context, p *models.InsuranceProduct) error {
	key := models.InsuranceProduct{
		CompanyID:         p.CompanyID,
		CategoryID:        p.CategoryID,
		InsuranceTypeID:   p.InsuranceTypeID,
		InsurancePeriodID: p.InsurancePeriodID,
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).
		Where(key).
		Assign(map[string]interface{}{
			"premium_percentage": p.PremiumPercentage,
			"description":        p.Description,
		}).
		FirstOrCreate(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert insurance product: %w", err)
	}
	return nil
}

func withProductParts(db *gorm.DB) *gorm.DB {
	return db.Preload("Company").
		Preload("Category").
		Preload("InsuranceType").
		Preload("InsurancePeriod")
}

func (r *insuranceRepository) GetProduct(ctx context.Context, id uint) (*models.InsuranceProduct, error) {
	var p models.InsuranceProduct
	if err := withProductParts(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInsuranceProductNotFound
		}
		return nil, fmt.Errorf("failed to get insurance product: %w", err)
	}
	return &p, nil
}

func (r *insuranceRepository) ListProducts(ctx context.Context) ([]models.InsuranceProduct, error) {
	var out []models.InsuranceProduct
	err := withProductParts(r.db.WithContext(ctx)).
		Order("company_id").Order("insurance_type_id").Order("insurance_period_id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list insurance products: %w", err)
	}
	return out, nil
}

func (r *insuranceRepository) CreateAssetInsurance(ctx context.Context, a *models.AssetInsurance) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create asset insurance: %w", err)
	}
	return nil
}

func (r *insuranceRepository) GetAssetInsurance(ctx context.Context, id uint) (*models.AssetInsurance, error) {
	var a models.AssetInsurance
	if err := r.db.WithContext(ctx).Preload("Asset").Preload("Provider").First(&a, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInsuranceNotFound
		}
		return nil, fmt.Errorf("failed to get asset insurance: %w", err)
	}
	return &a, nil
}

func (r *insuranceRepository) ListAssetInsurances(ctx context.Context, assetID uint) ([]models.AssetInsurance, error) {
	var out []models.AssetInsurance
	if err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).Order("start_date DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list asset insurances: %w", err)
	}
	return out, nil
}

func (r *insuranceRepository) HasActiveCover(ctx context.Context, assetID uint, start, end time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AssetInsurance{}).
		Where("asset_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			assetID, models.InsuranceStatusActive, end, start).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check asset cover: %w", err)
	}
	return n > 0, nil
}

func (r *insuranceRepository) CreateClaim(ctx context.Context, c *models.InsuranceClaim) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create insurance claim: %w", err)
	}
	return nil
}

func (r *insuranceRepository) GetClaim(ctx context.Context, id uint) (*models.InsuranceClaim, error) {
	var c models.InsuranceClaim
	err := r.db.WithContext(ctx).
		Preload("AssetInsurance").
		Preload("AssetInsurance.Asset").
		Preload("AssetInsurance.Provider").
		First(&c, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to get insurance claim: %w", err)
	}
	return &c, nil
}

func (r *insuranceRepository) ListClaims(ctx context.Context, assetInsuranceID uint) ([]models.InsuranceClaim, error) {
	var out []models.InsuranceClaim
	if err := r.db.WithContext(ctx).Where("asset_insurance_id = ?", assetInsuranceID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list insurance claims: %w", err)
	}
	return out, nil
}

func (r *insuranceRepository) SaveClaim(ctx context.Context, c *models.InsuranceClaim) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error; err != nil {
		return fmt.Errorf("failed to save insurance claim: %w", err)
	}
	return nil
}
