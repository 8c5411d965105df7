package insurance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "insurecow/internal/errors"
	"insurecow/internal/models"
	"insurecow/internal/policy"
	"insurecow/internal/repositories"
	"insurecow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service
	repos    *repositories.Repositories
	admin    *models.Credential
	owner    *models.Credential
	stranger *models.Credential
	insurer  *models.Credential
	rival    *models.Credential
	company  *models.InsuranceCompany
	other    *models.InsuranceCompany
	asset    *models.Asset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	f := &fixture{
		svc:      NewService(repos, policy.New()).(*service),
		repos:    repos,
		admin:    testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000001", IsSuperuser: true}),
		owner:    testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000002", RoleID: testutil.UintPtr(models.RoleIndividual)}),
		stranger: testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000003", RoleID: testutil.UintPtr(models.RoleIndividual)}),
		insurer:  testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000004", RoleID: testutil.UintPtr(models.RoleInsuranceCompany)}),
		rival:    testutil.CreateCredential(t, repos, &models.Credential{MobileNumber: "01700000005", RoleID: testutil.UintPtr(models.RoleInsuranceCompany)}),
	}
	f.svc.now = func() time.Time { return today }

	f.company = &models.InsuranceCompany{CredentialID: f.insurer.ID, Name: "Shield Life"}
	require.NoError(t, repos.Insurance.CreateCompany(ctx, f.company))
	f.other = &models.InsuranceCompany{CredentialID: f.rival.ID, Name: "Green Cover"}
	require.NoError(t, repos.Insurance.CreateCompany(ctx, f.other))

	f.asset = &models.Asset{OwnerID: f.owner.ID, ReferenceID: "asset-1", IsActive: true}
	require.NoError(t, repos.Assets.Create(ctx, f.asset))
	return f
}

func (f *fixture) product(t *testing.T, period string) *models.InsuranceProduct {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), f.insurer, ProductInput{
		Category:          "livestock",
		InsuranceType:     "cattle mortality",
		Period:            period,
		PeriodMonths:      12,
		PremiumPercentage: 4.5,
	})
	require.NoError(t, err)
	return p
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func (f *fixture) apply(t *testing.T, productID uint) *models.AssetInsurance {
	t.Helper()
	ins, err := f.svc.Apply(context.Background(), f.owner, ApplyInput{
		AssetID:    f.asset.ID,
		ProductID:  &productID,
		SumInsured: 80000,
		StartDate:  date("2025-01-01"),
		EndDate:    date("2025-12-31"),
	})
	require.NoError(t, err)
	return ins
}

func TestCatalogue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	yearly := f.product(t, "1 year")
	require.NotNil(t, yearly.Company)
	assert.Equal(t, f.company.ID, yearly.CompanyID)
	assert.Equal(t, "cattle mortality", yearly.InsuranceType.Name)
	f.product(t, "2 years")

	again, err := f.svc.CreateProduct(ctx, f.insurer, ProductInput{
		Category: "livestock", InsuranceType: "cattle mortality", Period: "1 year", PremiumPercentage: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, yearly.ID, again.ID, "same type and period updates the product")

	companies, err := f.svc.Catalogue(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Shield Life", companies[0].Name)
	require.Len(t, companies[0].InsuranceTypes, 1)
	typ := companies[0].InsuranceTypes[0]
	assert.Equal(t, "livestock", typ.Category)
	require.Len(t, typ.Periods, 2)
	assert.Equal(t, yearly.ID, typ.Periods[0].ProductID)
	assert.Equal(t, 5.0, typ.Periods[0].PremiumPercentage)
	assert.Empty(t, companies[1].InsuranceTypes)
}

func TestCreateProductGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := ProductInput{Category: "livestock", InsuranceType: "theft", Period: "6 months", PremiumPercentage: 2}

	_, err := f.svc.CreateProduct(ctx, f.owner, in)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.svc.CreateProduct(ctx, f.admin, in)
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "insurance_company")

	forOther := in
	forOther.CompanyID = &f.other.ID
	p, err := f.svc.CreateProduct(ctx, f.admin, forOther)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, p.CompanyID)

	_, err = f.svc.CreateProduct(ctx, f.insurer, forOther)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err), "insurers write only their own products")

	bad := in
	bad.PremiumPercentage = 0
	bad.Period = " "
	_, err = f.svc.CreateProduct(ctx, f.insurer, bad)
	require.Error(t, err)
	fields := apperrors.As(err).Fields
	assert.Contains(t, fields, "premium_percentage")
	assert.Contains(t, fields, "insurance_period")
}

func TestApplyGatedByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.product(t, "1 year")

	in := ApplyInput{AssetID: f.asset.ID, ProductID: &product.ID, SumInsured: 80000, StartDate: date("2025-01-01"), EndDate: date("2025-12-31")}
	_, err := f.svc.Apply(ctx, f.stranger, in)
	assert.True(t, errors.Is(err, apperrors.ErrAssetNotFound), "got %v", err)

	ins, err := f.svc.Apply(ctx, f.owner, in)
	require.NoError(t, err)
	assert.Equal(t, f.company.ID, *ins.ProviderID)
	assert.Equal(t, models.InsuranceStatusActive, ins.Status)
	assert.True(t, strings.HasPrefix(ins.InsuranceNumber, "INS-"))
	assert.Nil(t, ins.PremiumAmount)

	logs, err := f.repos.Audit.ListForInstance(ctx, auditInsurance, ins.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, f.owner.ID, *logs[0].CredentialID)

	overlap := in
	overlap.StartDate = date("2025-06-01")
	overlap.EndDate = date("2026-05-31")
	_, err = f.svc.Apply(ctx, f.owner, overlap)
	assert.True(t, errors.Is(err, apperrors.ErrAssetAlreadyInsured), "got %v", err)

	renewal := in
	renewal.StartDate = date("2026-01-01")
	renewal.EndDate = date("2026-12-31")
	_, err = f.svc.Apply(ctx, f.admin, renewal)
	require.NoError(t, err, "superusers pass the ownership gate")

	list, err := f.svc.ListForAsset(ctx, f.owner, f.asset.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.ListForAsset(ctx, f.stranger, f.asset.ID)
	assert.True(t, errors.Is(err, apperrors.ErrAssetNotFound))
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.product(t, "1 year")
	missing := uint(9999)

	tests := []struct {
		name  string
		edit  func(*ApplyInput)
		field string
	}{
		{"end before start", func(in *ApplyInput) { in.EndDate = date("2024-12-31") }, "insurance_end_date"},
		{"no sum insured", func(in *ApplyInput) { in.SumInsured = 0 }, "sum_insured"},
		{"unknown product", func(in *ApplyInput) { in.ProductID = &missing }, "insurance_product"},
		{"provider does not sell the product", func(in *ApplyInput) { in.ProviderID = &f.other.ID }, "insurance_provider"},
		{"neither product nor provider", func(in *ApplyInput) { in.ProductID = nil }, "insurance_product"},
		{"unknown provider", func(in *ApplyInput) { in.ProductID = nil; in.ProviderID = &missing }, "insurance_provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ApplyInput{AssetID: f.asset.ID, ProductID: &product.ID, SumInsured: 1000, StartDate: date("2025-01-01"), EndDate: date("2025-12-31")}
			tt.edit(&in)
			_, err := f.svc.Apply(ctx, f.owner, in)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
			assert.Contains(t, apperrors.As(err).Fields, tt.field)
		})
	}

	f.asset.IsActive = false
	require.NoError(t, f.repos.Assets.Save(ctx, f.asset))
	_, err := f.svc.Apply(ctx, f.owner, ApplyInput{AssetID: f.asset.ID, ProviderID: &f.company.ID, SumInsured: 1000, StartDate: date("2025-01-01"), EndDate: date("2025-12-31")})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "asset")
}

func TestClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ins := f.apply(t, f.product(t, "1 year").ID)

	_, err := f.svc.Claim(ctx, f.stranger, ClaimInput{AssetInsuranceID: ins.ID, Reason: "died", AmountClaimed: 500})
	assert.True(t, errors.Is(err, apperrors.ErrInsuranceNotFound), "got %v", err)

	_, err = f.svc.Claim(ctx, f.owner, ClaimInput{AssetInsuranceID: ins.ID, Reason: "died", AmountClaimed: 90000})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "amount_claimed")

	claim, err := f.svc.Claim(ctx, f.owner, ClaimInput{AssetInsuranceID: ins.ID, Reason: "died of fever", AmountClaimed: 60000})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusPending, claim.Status)
	assert.True(t, today.Equal(claim.ClaimDate))

	claims, err := f.svc.ListClaims(ctx, f.insurer, ins.ID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	_, err = f.svc.ListClaims(ctx, f.rival, ins.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInsuranceNotFound))

	approve := ClaimDecision{Status: models.ClaimStatusApproved, AmountApproved: floatPtr(50000)}
	_, err = f.svc.ProcessClaim(ctx, f.rival, claim.ID, approve)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.svc.ProcessClaim(ctx, f.owner, claim.ID, approve)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err), "owners cannot settle their own claims")

	_, err = f.svc.ProcessClaim(ctx, f.insurer, claim.ID, ClaimDecision{Status: models.ClaimStatusApproved, AmountApproved: floatPtr(70000)})
	require.Error(t, err)
	assert.Contains(t, apperrors.As(err).Fields, "amount_approved")

	reviewing, err := f.svc.ProcessClaim(ctx, f.insurer, claim.ID, ClaimDecision{Status: models.ClaimStatusUnderReview})
	require.NoError(t, err)
	assert.Nil(t, reviewing.ProcessedDate)

	done, err := f.svc.ProcessClaim(ctx, f.insurer, claim.ID, approve)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusApproved, done.Status)
	assert.Equal(t, 50000.0, *done.AmountApproved)
	require.NotNil(t, done.ProcessedDate)

	_, err = f.svc.ProcessClaim(ctx, f.admin, claim.ID, ClaimDecision{Status: models.ClaimStatusRejected, RejectionReason: "late"})
	assert.True(t, errors.Is(err, apperrors.ErrClaimClosed), "got %v", err)

	logs, err := f.repos.Audit.ListForInstance(ctx, auditClaim, claim.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestDecisionValidation(t *testing.T) {
	tests := []struct {
		name  string
		d     ClaimDecision
		field string
	}{
		{"approval without amount", ClaimDecision{Status: models.ClaimStatusApproved}, "amount_approved"},
		{"rejection without reason", ClaimDecision{Status: models.ClaimStatusRejected}, "rejection_reason"},
		{"back to pending", ClaimDecision{Status: models.ClaimStatusPending}, "claim_status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDecision(tt.d)
			require.Error(t, err)
			assert.Contains(t, apperrors.As(err).Fields, tt.field)
		})
	}
}

func TestClaimNeedsActiveInsurance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ins := f.apply(t, f.product(t, "1 year").ID)

	f.svc.now = func() time.Time { return date("2026-02-01") }
	_, err := f.svc.Claim(ctx, f.owner, ClaimInput{AssetInsuranceID: ins.ID, Reason: "theft", AmountClaimed: 100})
	assert.True(t, errors.Is(err, apperrors.ErrInsuranceNotActive), "got %v", err)
}

func floatPtr(v float64) *float64 {
	return &v
}
