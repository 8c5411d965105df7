package models

import "time"

// Profile sub-records are scaffolded empty when a credential is created and may
// then be filled in by their owner exactly once (UpdateCount tracks that).

type PersonalInfo struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	CredentialID uint        `gorm:"uniqueIndex;not null" json:"-"`
	Credential   *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FirstName    string      `gorm:"size:50" json:"first_name"`
	LastName     string      `gorm:"size:50" json:"last_name"`
	NID          string      `gorm:"size:50" json:"nid"`
	DateOfBirth  *time.Time  `json:"date_of_birth"`
	Gender       string      `gorm:"size:10" json:"gender"`
	TIN          string      `gorm:"size:50" json:"tin"`
	UpdateCount  int         `gorm:"not null;default:0" json:"update_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type FinancialInfo struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	CredentialID  uint        `gorm:"uniqueIndex;not null" json:"-"`
	Credential    *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BankName      string      `gorm:"size:100" json:"bank_name"`
	BranchName    string      `gorm:"size:100" json:"branch_name"`
	AccountName   string      `gorm:"size:100" json:"account_name"`
	AccountNumber string      `gorm:"size:50" json:"account_number"`
	UpdateCount   int         `gorm:"not null;default:0" json:"update_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type NomineeInfo struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	CredentialID uint        `gorm:"uniqueIndex;not null" json:"-"`
	Credential   *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	NomineeName  string      `gorm:"size:100" json:"nominee_name"`
	Phone        string      `gorm:"size:20" json:"phone"`
	Email        string      `gorm:"size:254" json:"email"`
	NID          string      `gorm:"size:50" json:"nid"`
	UpdateCount  int         `gorm:"not null;default:0" json:"update_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrganizationInfo exists only for organization and insurance-company credentials.
type OrganizationInfo struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	CredentialID uint        `gorm:"uniqueIndex;not null" json:"-"`
	Credential   *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name         string      `gorm:"size:255" json:"name"`
	Established  *time.Time  `json:"established"`
	TIN          string      `gorm:"size:50" json:"tin"`
	BIN          string      `gorm:"size:50" json:"bin"`
	UpdateCount  int         `gorm:"not null;default:0" json:"update_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NeedsOrganizationInfo reports whether a credential with roleID carries an OrganizationInfo record.
func NeedsOrganizationInfo(roleID *uint) bool {
	return roleID != nil && (*roleID == RoleOrganization || *roleID == RoleInsuranceCompany)
}

// ProfileRecord is implemented by the four profile sub-records.
type ProfileRecord interface {
	UpdateCounter() *int
}

func (p *PersonalInfo) UpdateCounter() *int     { return &p.UpdateCount }
func (p *FinancialInfo) UpdateCounter() *int    { return &p.UpdateCount }
func (p *NomineeInfo) UpdateCounter() *int      { return &p.UpdateCount }
func (p *OrganizationInfo) UpdateCounter() *int { return &p.UpdateCount }
