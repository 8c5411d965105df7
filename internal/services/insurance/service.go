// Package insurance sells company products on registered assets and tracks the
// claims filed against them. Premium amounts are stored as entered; nothing
// here prices a product.
package insurance

import (
	"context"
	"strings"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/validation"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	auditInsurance = "AssetInsurance"
	auditClaim     = "InsuranceClaim"
)

type ProductInput struct {
	// CompanyID is required for superusers; insurers default to their own company.
	CompanyID         *uint
	Category          string
	InsuranceType     string
	Description       string
	Period            string
	PeriodMonths      int
	PremiumPercentage float64
}

type ApplyInput struct {
	AssetID uint
	// ProductID picks the provider too. ProviderID alone records cover bought
	// outside the catalogue.
	ProductID     *uint
	ProviderID    *uint
	SumInsured    float64
	PremiumAmount *float64
	StartDate     time.Time
	EndDate       time.Time
	PolicyTerms   string
	Agent         string
	Remarks       string
}

type ClaimInput struct {
	AssetInsuranceID uint
	Reason           string
	AmountClaimed    float64
	Remarks          string
}

type ClaimDecision struct {
	Status          models.ClaimStatus
	AmountApproved  *float64
	RejectionReason string
	Remarks         string
}

// CatalogueCompany is one insurer with everything it sells.
type CatalogueCompany struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	InsuranceTypes []CatalogueType `json:"insurance_types"`
}

type CatalogueType struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Periods     []CataloguePeriod `json:"insurance_periods"`
}

type CataloguePeriod struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Months            int     `json:"months"`
	ProductID         uint    `json:"insurance_product"`
	PremiumPercentage float64 `json:"premium_percentage"`
}

type Service interface {
	Catalogue(ctx context.Context) ([]CatalogueCompany, error)
	CreateProduct(ctx context.Context, actor *models.Credential, in ProductInput) (*models.InsuranceProduct, error)
	Apply(ctx context.Context, actor *models.Credential, in ApplyInput) (*models.AssetInsurance, error)
	ListForAsset(ctx context.Context, actor *models.Credential, assetID uint) ([]models.AssetInsurance, error)
	Claim(ctx context.Context, actor *models.Credential, in ClaimInput) (*models.InsuranceClaim, error)
	ListClaims(ctx context.Context, actor *models.Credential, assetInsuranceID uint) ([]models.InsuranceClaim, error)
	ProcessClaim(ctx context.Context, actor *models.Credential, claimID uint, d ClaimDecision) (*models.InsuranceClaim, error)
}

type service struct {
	repos  *repositories.Repositories
	policy *policy.Policy
	now    func() time.Time
}

func NewService(repos *repositories.Repositories, pol *policy.Policy) Service {
	return &service{repos: repos, policy: pol, now: time.Now}
}

func (s *service) Catalogue(ctx context.Context) ([]CatalogueCompany, error) {
	companies, err := s.repos.Insurance.ListCompanies(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	products, err := s.repos.Insurance.ListProducts(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	out := make([]CatalogueCompany, len(companies))
	index := make(map[uint]int, len(companies))
	for i, c := range companies {
		out[i] = CatalogueCompany{ID: c.ID, Name: c.Name, InsuranceTypes: []CatalogueType{}}
		index[c.ID] = i
	}

	// products arrive grouped by company, then type
	for _, p := range products {
		i, ok := index[p.CompanyID]
		if !ok || p.InsuranceType == nil || p.InsurancePeriod == nil {
			continue
		}
		types := &out[i].InsuranceTypes
		if n := len(*types); n == 0 || (*types)[n-1].ID != p.InsuranceTypeID {
			t := CatalogueType{
				ID:          p.InsuranceTypeID,
				Name:        p.InsuranceType.Name,
				Description: p.InsuranceType.Description,
				Periods:     []CataloguePeriod{},
			}
			if p.Category != nil {
				t.Category = p.Category.Name
			}
			*types = append(*types, t)
		}
		last := &(*types)[len(*types)-1]
		last.Periods = append(last.Periods, CataloguePeriod{
			ID:                p.InsurancePeriodID,
			Name:              p.InsurancePeriod.Name,
			Months:            p.InsurancePeriod.Months,
			ProductID:         p.ID,
			PremiumPercentage: p.PremiumPercentage,
		})
	}
	return out, nil
}

func validateProduct(in *ProductInput) error {
	in.Category = strings.TrimSpace(in.Category)
	in.InsuranceType = strings.TrimSpace(in.InsuranceType)
	in.Period = strings.TrimSpace(in.Period)

	v := validation.New()
	v.Required("category", in.Category)
	v.MaxLength("category", in.Category, 100)
	v.Required("insurance_type", in.InsuranceType)
	v.MaxLength("insurance_type", in.InsuranceType, 100)
	v.Required("insurance_period", in.Period)
	v.MaxLength("insurance_period", in.Period, 100)
	v.Check(in.PeriodMonths >= 0, "period_months", "must not be negative")
	v.Check(in.PremiumPercentage > 0 && in.PremiumPercentage <= 100, "premium_percentage", "must be greater than 0 and at most 100")
	return v.Err()
}

// company resolves which insurer a product is written for.
func (s *service) company(ctx context.Context, tx *repositories.Repositories, actor *models.Credential, companyID *uint) (*models.InsuranceCompany, error) {
	if companyID == nil {
		if !actor.HasRole(models.RoleInsuranceCompany) {
			return nil, apperrors.FieldError("insurance_company", "this field is required")
		}
		c, err := tx.Insurance.GetCompanyByCredential(ctx, actor.ID)
		if err != nil {
			return nil, passNotFound(err)
		}
		return c, nil
	}

	c, err := tx.Insurance.GetCompany(ctx, *companyID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.FieldError("insurance_company", "object does not exist")
		}
		return nil, apperrors.Internal(err)
	}
	if err := s.policy.Enforce(actor, policy.Owner(c.CredentialID)); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) CreateProduct(ctx context.Context, actor *models.Credential, in ProductInput) (*models.InsuranceProduct, error) {
	if err := s.policy.Enforce(actor, policy.Any(policy.Role(models.RoleInsuranceCompany), policy.Superuser())); err != nil {
		return nil, err
	}
	if err := validateProduct(&in); err != nil {
		return nil, err
	}

	var product *models.InsuranceProduct
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		company, err := s.company(ctx, tx, actor, in.CompanyID)
		if err != nil {
			return err
		}
		category, err := tx.Insurance.GetOrCreateCategory(ctx, company.ID, in.Category)
		if err != nil {
			return apperrors.Internal(err)
		}
		typ, err := tx.Insurance.GetOrCreateType(ctx, category, in.InsuranceType, in.Description)
		if err != nil {
			return apperrors.Internal(err)
		}
		period, err := tx.Insurance.GetOrCreatePeriod(ctx, category, in.Period, in.PeriodMonths)
		if err != nil {
			return apperrors.Internal(err)
		}

		p := &models.InsuranceProduct{
			CompanyID:         company.ID,
			CategoryID:        category.ID,
			InsuranceTypeID:   typ.ID,
			InsurancePeriodID: period.ID,
			PremiumPercentage: in.PremiumPercentage,
			Description:       in.Description,
		}
		if err := tx.Insurance.UpsertProduct(ctx, p); err != nil {
			return apperrors.Internal(err)
		}
		product, err = tx.Insurance.GetProduct(ctx, p.ID)
		if err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"product_id": product.ID,
		"company_id": product.CompanyID,
		"actor_id":   actor.ID,
	}).Info("insurance product saved")
	return product, nil
}

// asset fetches an asset the actor owns. Assets of other owners are reported as missing.
func (s *service) asset(ctx context.Context, repos *repositories.Repositories, actor *models.Credential, id uint) (*models.Asset, error) {
	a, err := repos.Assets.GetByID(ctx, id)
	if err != nil {
		return nil, passNotFound(err)
	}
	if !s.policy.Check(actor, policy.Owner(a.OwnerID)).Allowed {
		return nil, apperrors.ErrAssetNotFound
	}
	return a, nil
}

func validateApply(in ApplyInput) error {
	v := validation.New()
	v.Check(in.AssetID != 0, "asset", "this field is required")
	v.Check(in.SumInsured > 0, "sum_insured", "must be greater than 0")
	v.Check(in.PremiumAmount == nil || *in.PremiumAmount >= 0, "premium_amount", "must not be negative")
	v.Check(!in.StartDate.IsZero(), "insurance_start_date", "this field is required")
	v.Check(!in.EndDate.IsZero(), "insurance_end_date", "this field is required")
	v.Check(in.StartDate.IsZero() || in.EndDate.IsZero() || !in.EndDate.Before(in.StartDate),
		"insurance_end_date", "must not be before the start date")
	return v.Err()
}

// provider resolves the insuring company from the product or the explicit provider.
func provider(ctx context.Context, tx *repositories.Repositories, in ApplyInput) (*uint, error) {
	if in.ProductID != nil {
		product, err := tx.Insurance.GetProduct(ctx, *in.ProductID)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				return nil, apperrors.FieldError("insurance_product", "object does not exist")
			}
			return nil, apperrors.Internal(err)
		}
		if in.ProviderID != nil && *in.ProviderID != product.CompanyID {
			return nil, apperrors.FieldError("insurance_provider", "does not offer this product")
		}
		return &product.CompanyID, nil
	}
	if in.ProviderID == nil {
		return nil, apperrors.FieldError("insurance_product", "this field is required")
	}
	company, err := tx.Insurance.GetCompany(ctx, *in.ProviderID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.FieldError("insurance_provider", "object does not exist")
		}
		return nil, apperrors.Internal(err)
	}
	return &company.ID, nil
}

func (s *service) Apply(ctx context.Context, actor *models.Credential, in ApplyInput) (*models.AssetInsurance, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validateApply(in); err != nil {
		return nil, err
	}

	var insurance *models.AssetInsurance
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		asset, err := s.asset(ctx, tx, actor, in.AssetID)
		if err != nil {
			return err
		}
		if !asset.IsActive {
			return apperrors.FieldError("asset", "asset is not active")
		}
		providerID, err := provider(ctx, tx, in)
		if err != nil {
			return err
		}

		covered, err := tx.Insurance.HasActiveCover(ctx, asset.ID, in.StartDate, in.EndDate)
		if err != nil {
			return apperrors.Internal(err)
		}
		if covered {
			return apperrors.ErrAssetAlreadyInsured
		}

		insurance = &models.AssetInsurance{
			AssetID:         asset.ID,
			ProviderID:      providerID,
			ProductID:       in.ProductID,
			InsuranceNumber: newInsuranceNumber(),
			SumInsured:      in.SumInsured,
			PremiumAmount:   in.PremiumAmount,
			StartDate:       in.StartDate,
			EndDate:         in.EndDate,
			Status:          models.InsuranceStatusActive,
			PolicyTerms:     in.PolicyTerms,
			Agent:           in.Agent,
			CreatedByID:     &actor.ID,
			UpdatedByID:     &actor.ID,
			Remarks:         in.Remarks,
		}
		if err := tx.Insurance.CreateAssetInsurance(ctx, insurance); err != nil {
			return apperrors.Internal(err)
		}
		return record(ctx, tx, actor, auditInsurance, insurance.ID, models.AuditActionCreate, insurance)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"insurance_id":     insurance.ID,
		"insurance_number": insurance.InsuranceNumber,
		"asset_id":         insurance.AssetID,
		"actor_id":         actor.ID,
	}).Info("asset insured")
	return insurance, nil
}

func (s *service) ListForAsset(ctx context.Context, actor *models.Credential, assetID uint) ([]models.AssetInsurance, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if _, err := s.asset(ctx, s.repos, actor, assetID); err != nil {
		return nil, err
	}
	out, err := s.repos.Insurance.ListAssetInsurances(ctx, assetID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// insurance fetches an asset insurance the actor may see: the asset owner
// always, the insuring company when asProvider is set.
func (s *service) insurance(ctx context.Context, repos *repositories.Repositories, actor *models.Credential, id uint, asProvider bool) (*models.AssetInsurance, error) {
	ins, err := repos.Insurance.GetAssetInsurance(ctx, id)
	if err != nil {
		return nil, passNotFound(err)
	}
	if ins.Asset != nil && s.policy.Check(actor, policy.Owner(ins.Asset.OwnerID)).Allowed {
		return ins, nil
	}
	if asProvider && ins.Provider != nil && s.policy.Check(actor, policy.Owner(ins.Provider.CredentialID)).Allowed {
		return ins, nil
	}
	return nil, apperrors.ErrInsuranceNotFound
}

func (s *service) Claim(ctx context.Context, actor *models.Credential, in ClaimInput) (*models.InsuranceClaim, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	in.Reason = strings.TrimSpace(in.Reason)
	v := validation.New()
	v.Check(in.AssetInsuranceID != 0, "asset_insurance", "this field is required")
	v.Required("reason", in.Reason)
	v.Check(in.AmountClaimed > 0, "amount_claimed", "must be greater than 0")
	if err := v.Err(); err != nil {
		return nil, err
	}

	var claim *models.InsuranceClaim
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		ins, err := s.insurance(ctx, tx, actor, in.AssetInsuranceID, false)
		if err != nil {
			return err
		}
		now := s.now()
		if !ins.CurrentlyActive(now) {
			return apperrors.ErrInsuranceNotActive
		}
		if in.AmountClaimed > ins.SumInsured {
			return apperrors.FieldError("amount_claimed", "must not exceed the sum insured")
		}

		claim = &models.InsuranceClaim{
			AssetInsuranceID: ins.ID,
			ClaimDate:        now,
			Reason:           in.Reason,
			AmountClaimed:    in.AmountClaimed,
			Status:           models.ClaimStatusPending,
			CreatedByID:      &actor.ID,
			UpdatedByID:      &actor.ID,
			Remarks:          in.Remarks,
		}
		if err := tx.Insurance.CreateClaim(ctx, claim); err != nil {
			return apperrors.Internal(err)
		}
		return record(ctx, tx, actor, auditClaim, claim.ID, models.AuditActionCreate, claim)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"claim_id":     claim.ID,
		"insurance_id": claim.AssetInsuranceID,
		"actor_id":     actor.ID,
	}).Info("insurance claim filed")
	return claim, nil
}

func (s *service) ListClaims(ctx context.Context, actor *models.Credential, assetInsuranceID uint) ([]models.InsuranceClaim, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if _, err := s.insurance(ctx, s.repos, actor, assetInsuranceID, true); err != nil {
		return nil, err
	}
	out, err := s.repos.Insurance.ListClaims(ctx, assetInsuranceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

func validateDecision(d ClaimDecision) error {
	v := validation.New()
	switch d.Status {
	case models.ClaimStatusUnderReview:
	case models.ClaimStatusApproved:
		v.Check(d.AmountApproved != nil, "amount_approved", "this field is required")
		v.Check(d.AmountApproved == nil || *d.AmountApproved > 0, "amount_approved", "must be greater than 0")
	case models.ClaimStatusRejected:
		v.Required("rejection_reason", strings.TrimSpace(d.RejectionReason))
	default:
		v.AddError("claim_status", "must be one of: under_review approved rejected")
	}
	return v.Err()
}

// ProcessClaim records the insurer's decision. Only the insuring company's
// credential or a superuser may decide, and only while the claim is open.
func (s *service) ProcessClaim(ctx context.Context, actor *models.Credential, claimID uint, d ClaimDecision) (*models.InsuranceClaim, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validateDecision(d); err != nil {
		return nil, err
	}

	var claim *models.InsuranceClaim
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		claim, err = tx.Insurance.GetClaim(ctx, claimID)
		if err != nil {
			return passNotFound(err)
		}

		req := policy.Superuser()
		if ins := claim.AssetInsurance; ins != nil && ins.Provider != nil {
			req = policy.Owner(ins.Provider.CredentialID)
		}
		if err := s.policy.Enforce(actor, req); err != nil {
			return err
		}
		if !claim.Status.Open() {
			return apperrors.ErrClaimClosed
		}
		if d.AmountApproved != nil && *d.AmountApproved > claim.AmountClaimed {
			return apperrors.FieldError("amount_approved", "must not exceed the amount claimed")
		}

		changes := map[string]interface{}{"claim_status": map[string]interface{}{"old": claim.Status, "new": d.Status}}
		claim.Status = d.Status
		claim.UpdatedByID = &actor.ID
		if d.Remarks != "" {
			claim.Remarks = d.Remarks
		}
		switch d.Status {
		case models.ClaimStatusApproved:
			claim.AmountApproved = d.AmountApproved
			changes["amount_approved"] = *d.AmountApproved
		case models.ClaimStatusRejected:
			claim.RejectionReason = d.RejectionReason
			changes["rejection_reason"] = d.RejectionReason
		}
		if !claim.Status.Open() {
			now := s.now()
			claim.ProcessedDate = &now
		}

		if err := tx.Insurance.SaveClaim(ctx, claim); err != nil {
			return apperrors.Internal(err)
		}
		return record(ctx, tx, actor, auditClaim, claim.ID, models.AuditActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"claim_id": claim.ID,
		"status":   claim.Status,
		"actor_id": actor.ID,
	}).Info("insurance claim processed")
	return claim, nil
}

func newInsuranceNumber() string {
	return "INS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func passNotFound(err error) error {
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return err
	}
	return apperrors.Internal(err)
}

func record(ctx context.Context, tx *repositories.Repositories, actor *models.Credential, model string, id uint, action string, changes interface{}) error {
	if err := tx.Audit.Record(ctx, &actor.ID, model, id, action, changes); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
