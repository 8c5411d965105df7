package handlers

import (
	"time"

	"insurecow/internal/models"
	"insurecow/internal/services/asset"
	"insurecow/internal/services/catalog"
	"insurecow/internal/services/insurance"
	"insurecow/internal/services/user"
	"insurecow/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type registerStep1Request struct {
	MobileNumber string   `json:"mobile_number" validate:"required,mobile"`
	RoleID       uint     `json:"role_id" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required"`
	OTP          string `json:"otp" validate:"required"`
}

type setPasswordRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required"`
	Password     string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type personalInfoRequest struct {
	FirstName   string `json:"first_name" validate:"max=50"`
	LastName    string `json:"last_name" validate:"max=50"`
	NID         string `json:"nid" validate:"max=50"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
	TIN         string `json:"tin" validate:"max=50"`
}

func (r *personalInfoRequest) model() models.PersonalInfo {
	return models.PersonalInfo{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		NID:         r.NID,
		DateOfBirth: parseDate(r.DateOfBirth),
		Gender:      r.Gender,
		TIN:         r.TIN,
	}
}

type financialInfoRequest struct {
	BankName      string `json:"bank_name" validate:"max=100"`
	BranchName    string `json:"branch_name" validate:"max=100"`
	AccountName   string `json:"account_name" validate:"max=100"`
	AccountNumber string `json:"account_number" validate:"max=50"`
}

func (r *financialInfoRequest) model() models.FinancialInfo {
	return models.FinancialInfo{
		BankName:      r.BankName,
		BranchName:    r.BranchName,
		AccountName:   r.AccountName,
		AccountNumber: r.AccountNumber,
	}
}

type nomineeInfoRequest struct {
	NomineeName string `json:"nominee_name" validate:"max=100"`
	Phone       string `json:"phone" validate:"omitempty,mobile"`
	Email       string `json:"email" validate:"omitempty,email"`
	NID         string `json:"nid" validate:"max=50"`
}

func (r *nomineeInfoRequest) model() models.NomineeInfo {
	return models.NomineeInfo{
		NomineeName: r.NomineeName,
		Phone:       r.Phone,
		Email:       r.Email,
		NID:         r.NID,
	}
}

type organizationInfoRequest struct {
	Name        string `json:"name" validate:"max=255"`
	Established string `json:"established" validate:"omitempty,datetime=2006-01-02"`
	TIN         string `json:"tin" validate:"max=50"`
	BIN         string `json:"bin" validate:"max=50"`
}

func (r *organizationInfoRequest) model() models.OrganizationInfo {
	return models.OrganizationInfo{
		Name:        r.Name,
		Established: parseDate(r.Established),
		TIN:         r.TIN,
		BIN:         r.BIN,
	}
}

// createUserRequest is shared by the admin create-user and the sub-user endpoints.
type createUserRequest struct {
	MobileNumber     string                   `json:"mobile_number" validate:"required,mobile"`
	Password         string                   `json:"password" validate:"required,password"`
	RoleID           *uint                    `json:"role_id"`
	ManagedBy        *uint                    `json:"managed_by"`
	PersonalInfo     *personalInfoRequest     `json:"personal_info" validate:"omitempty"`
	FinancialInfo    *financialInfoRequest    `json:"financial_info" validate:"omitempty"`
	NomineeInfo      *nomineeInfoRequest      `json:"nominee_info" validate:"omitempty"`
	OrganizationInfo *organizationInfoRequest `json:"organization_info" validate:"omitempty"`
}

func (r *createUserRequest) input() user.CreateInput {
	in := user.CreateInput{
		Mobile:      r.MobileNumber,
		Password:    r.Password,
		RoleID:      r.RoleID,
		ManagedByID: r.ManagedBy,
	}
	if r.PersonalInfo != nil {
		m := r.PersonalInfo.model()
		in.Personal = &m
	}
	if r.FinancialInfo != nil {
		m := r.FinancialInfo.model()
		in.Financial = &m
	}
	if r.NomineeInfo != nil {
		m := r.NomineeInfo.model()
		in.Nominee = &m
	}
	if r.OrganizationInfo != nil {
		m := r.OrganizationInfo.model()
		in.Organization = &m
	}
	return in
}

type setManagedByRequest struct {
	ManagedBy *uint `json:"managed_by"`
}

type roleRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	IsActive *bool  `json:"is_active"`
}

type assetRequest struct {
	UserID              *uint   `json:"user_id"`
	AssetTypeID         *uint   `json:"asset_type_id" validate:"required"`
	BreedID             *uint   `json:"breed_id"`
	ColorID             *uint   `json:"color_id"`
	AgeInMonths         int     `json:"age_in_months" validate:"gte=0"`
	WeightKg            float64 `json:"weight_kg" validate:"gte=0"`
	VaccinationStatusID *uint   `json:"vaccination_status_id"`
	LastVaccinationDate string  `json:"last_vaccination_date" validate:"omitempty,datetime=2006-01-02"`
	DewormingStatusID   *uint   `json:"deworming_status_id"`
	LastDewormingDate   string  `json:"last_deworming_date" validate:"omitempty,datetime=2006-01-02"`
	SpecialMark         string  `json:"special_mark"`
	HealthIssues        string  `json:"health_issues"`
	Remarks             string  `json:"remarks"`
	IsActive            *bool   `json:"is_active"`
}

func (r *assetRequest) input() asset.Input {
	return asset.Input{
		OwnerID:             r.UserID,
		AssetTypeID:         r.AssetTypeID,
		BreedID:             r.BreedID,
		ColorID:             r.ColorID,
		VaccinationStatusID: r.VaccinationStatusID,
		LastVaccinationDate: parseDate(r.LastVaccinationDate),
		DewormingStatusID:   r.DewormingStatusID,
		LastDewormingDate:   parseDate(r.LastDewormingDate),
		AgeInMonths:         r.AgeInMonths,
		WeightKg:            r.WeightKg,
		SpecialMark:         r.SpecialMark,
		HealthIssues:        r.HealthIssues,
		Remarks:             r.Remarks,
		IsActive:            r.IsActive,
	}
}

type catalogRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (r *catalogRequest) input() catalog.Input {
	return catalog.Input{Name: r.Name, Description: r.Description}
}

type productRequest struct {
	CompanyID         *uint   `json:"insurance_company"`
	Category          string  `json:"category" validate:"required,max=100"`
	InsuranceType     string  `json:"insurance_type" validate:"required,max=100"`
	Description       string  `json:"description"`
	Period            string  `json:"insurance_period" validate:"required,max=100"`
	PeriodMonths      int     `json:"period_months" validate:"gte=0"`
	PremiumPercentage float64 `json:"premium_percentage" validate:"gt=0,lte=100"`
}

func (r *productRequest) input() insurance.ProductInput {
	return insurance.ProductInput{
		CompanyID:         r.CompanyID,
		Category:          r.Category,
		InsuranceType:     r.InsuranceType,
		Description:       r.Description,
		Period:            r.Period,
		PeriodMonths:      r.PeriodMonths,
		PremiumPercentage: r.PremiumPercentage,
	}
}

type applyRequest struct {
	AssetID       uint     `json:"asset" validate:"required"`
	ProductID     *uint    `json:"insurance_product"`
	ProviderID    *uint    `json:"insurance_provider"`
	SumInsured    float64  `json:"sum_insured" validate:"gt=0"`
	PremiumAmount *float64 `json:"premium_amount" validate:"omitempty,gte=0"`
	StartDate     string   `json:"insurance_start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string   `json:"insurance_end_date" validate:"required,datetime=2006-01-02"`
	PolicyTerms   string   `json:"policy_terms"`
	Agent         string   `json:"insurance_agent" validate:"max=255"`
	Remarks       string   `json:"remarks"`
}

func (r *applyRequest) input() insurance.ApplyInput {
	in := insurance.ApplyInput{
		AssetID:       r.AssetID,
		ProductID:     r.ProductID,
		ProviderID:    r.ProviderID,
		SumInsured:    r.SumInsured,
		PremiumAmount: r.PremiumAmount,
		PolicyTerms:   r.PolicyTerms,
		Agent:         r.Agent,
		Remarks:       r.Remarks,
	}
	if d := parseDate(r.StartDate); d != nil {
		in.StartDate = *d
	}
	if d := parseDate(r.EndDate); d != nil {
		in.EndDate = *d
	}
	return in
}

type claimRequest struct {
	AssetInsuranceID uint    `json:"asset_insurance" validate:"required"`
	Reason           string  `json:"reason" validate:"required"`
	AmountClaimed    float64 `json:"amount_claimed" validate:"gt=0"`
	Remarks          string  `json:"remarks"`
}

func (r *claimRequest) input() insurance.ClaimInput {
	return insurance.ClaimInput{
		AssetInsuranceID: r.AssetInsuranceID,
		Reason:           r.Reason,
		AmountClaimed:    r.AmountClaimed,
		Remarks:          r.Remarks,
	}
}

type claimDecisionRequest struct {
	Status          string   `json:"claim_status" validate:"required,oneof=under_review approved rejected"`
	AmountApproved  *float64 `json:"amount_approved" validate:"omitempty,gt=0"`
	RejectionReason string   `json:"rejection_reason"`
	Remarks         string   `json:"remarks"`
}

func (r *claimDecisionRequest) input() insurance.ClaimDecision {
	return insurance.ClaimDecision{
		Status:          models.ClaimStatus(r.Status),
		AmountApproved:  r.AmountApproved,
		RejectionReason: r.RejectionReason,
		Remarks:         r.Remarks,
	}
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return validation.Struct(dst)
}

// parseDate returns nil for an empty value; the format is checked by the validator.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}
