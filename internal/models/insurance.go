package models

import "time"

// InsuranceCompany is the insurer profile of a role 3 credential. Its name
// follows the owner's organization info.
type InsuranceCompany struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CredentialID uint        `gorm:"uniqueIndex;not null" json:"user_id"`
	Credential   *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name         string      `gorm:"size:100" json:"name"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type InsuranceCategory struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CompanyID   uint              `gorm:"uniqueIndex:idx_insurance_category_name;not null" json:"company_id"`
	Company     *InsuranceCompany `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string            `gorm:"size:100;uniqueIndex:idx_insurance_category_name;not null" json:"name"`
	Description string            `json:"description"`
}

type InsuranceType struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	CompanyID   uint               `gorm:"uniqueIndex:idx_insurance_type_name;not null" json:"company_id"`
	Company     *InsuranceCompany  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CategoryID  uint               `gorm:"uniqueIndex:idx_insurance_type_name;not null" json:"category_id"`
	Category    *InsuranceCategory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string             `gorm:"size:100;uniqueIndex:idx_insurance_type_name;not null" json:"name"`
	Description string             `json:"description"`
}

type InsurancePeriod struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	CompanyID  uint               `gorm:"uniqueIndex:idx_insurance_period_name;not null" json:"company_id"`
	Company    *InsuranceCompany  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CategoryID uint               `gorm:"uniqueIndex:idx_insurance_period_name;not null" json:"category_id"`
	Category   *InsuranceCategory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name       string             `gorm:"size:100;uniqueIndex:idx_insurance_period_name;not null" json:"name"`
	Months     int                `json:"months"`
}

// InsuranceProduct is what a company sells: one type over one period at an
// annual premium percentage of the asset value.
type InsuranceProduct struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	CompanyID         uint               `gorm:"uniqueIndex:idx_insurance_product;not null" json:"company_id"`
	Company           *InsuranceCompany  `gorm:"constraint:OnDelete:CASCADE" json:"company,omitempty"`
	CategoryID        uint               `gorm:"uniqueIndex:idx_insurance_product;not null" json:"category_id"`
	Category          *InsuranceCategory `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	InsuranceTypeID   uint               `gorm:"uniqueIndex:idx_insurance_product;not null" json:"insurance_type_id"`
	InsuranceType     *InsuranceType     `gorm:"constraint:OnDelete:CASCADE" json:"insurance_type,omitempty"`
	InsurancePeriodID uint               `gorm:"uniqueIndex:idx_insurance_product;not null" json:"insurance_period_id"`
	InsurancePeriod   *InsurancePeriod   `gorm:"constraint:OnDelete:CASCADE" json:"insurance_period,omitempty"`
	PremiumPercentage float64            `gorm:"not null" json:"premium_percentage"`
	Description       string             `json:"description"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type InsuranceStatus string

const (
	InsuranceStatusActive    InsuranceStatus = "active"
	InsuranceStatusExpired   InsuranceStatus = "expired"
	InsuranceStatusCancelled InsuranceStatus = "cancelled"
)

// AssetInsurance covers one asset for a date range.
type AssetInsurance struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	AssetID             uint              `gorm:"index;not null" json:"asset_id"`
	Asset               *Asset            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProviderID          *uint             `gorm:"index" json:"insurance_provider"`
	Provider            *InsuranceCompany `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ProductID           *uint             `json:"insurance_product"`
	Product             *InsuranceProduct `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	InsuranceNumber     string            `gorm:"size:100;uniqueIndex;not null" json:"insurance_number"`
	SumInsured          float64           `gorm:"not null" json:"sum_insured"`
	PremiumAmount       *float64          `json:"premium_amount"`
	StartDate           time.Time         `gorm:"not null" json:"insurance_start_date"`
	EndDate             time.Time         `gorm:"not null" json:"insurance_end_date"`
	Status              InsuranceStatus   `gorm:"size:20;not null" json:"insurance_status"`
	PolicyTerms         string            `json:"policy_terms"`
	Agent               string            `gorm:"size:255" json:"insurance_agent"`
	RenewalReminderSent bool              `json:"renewal_reminder_sent"`
	CreatedByID         *uint             `json:"created_by"`
	CreatedBy           *Credential       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UpdatedByID         *uint             `json:"updated_by"`
	UpdatedBy           *Credential       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Remarks             string            `json:"remarks"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// CurrentlyActive reports whether the insurance is active and now falls within its dates.
func (a *AssetInsurance) CurrentlyActive(now time.Time) bool {
	if a.Status != InsuranceStatusActive {
		return false
	}
	day := truncateDay(now)
	return !day.Before(truncateDay(a.StartDate)) && !day.After(truncateDay(a.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
)

// Open reports whether the claim still awaits a decision.
func (s ClaimStatus) Open() bool {
	return s == ClaimStatusPending || s == ClaimStatusUnderReview
}

type InsuranceClaim struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	AssetInsuranceID uint            `gorm:"index;not null" json:"asset_insurance"`
	AssetInsurance   *AssetInsurance `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ClaimDate        time.Time       `gorm:"not null" json:"claim_date"`
	Reason           string          `gorm:"not null" json:"reason"`
	AmountClaimed    float64         `gorm:"not null" json:"amount_claimed"`
	AmountApproved   *float64        `json:"amount_approved"`
	Status           ClaimStatus     `gorm:"size:20;not null" json:"claim_status"`
	RejectionReason  string          `json:"rejection_reason"`
	ProcessedDate    *time.Time      `json:"processed_date"`
	CreatedByID      *uint           `json:"created_by"`
	CreatedBy        *Credential     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UpdatedByID      *uint           `json:"updated_by"`
	UpdatedBy        *Credential     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Remarks          string          `json:"remarks"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
