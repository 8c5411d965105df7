package models

import (
	"errors"
	"time"

	apperrors "insurecow/internal/errors"

	"gorm.io/gorm"
)

// Well-known role ids referenced by business rules.
const (
	RoleIndividual       uint = 1
	RoleOrganization     uint = 2
	RoleInsuranceCompany uint = 3
)

// DefaultRoles are seeded on startup.
func DefaultRoles() []Role {
	return []Role{
		{ID: RoleIndividual, Name: "individual", IsActive: true},
		{ID: RoleOrganization, Name: "organization", IsActive: true},
		{ID: RoleInsuranceCompany, Name: "insurance_company", IsActive: true},
	}
}

type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential is a registered user's durable identity. The mobile number is the login key.
type Credential struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	MobileNumber  string      `gorm:"size:15;uniqueIndex;not null" json:"mobile_number"`
	Password      string      `gorm:"not null" json:"-"`
	RoleID        *uint       `gorm:"index" json:"role_id"`
	Role          *Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"role,omitempty"`
	ManagedByID   *uint       `gorm:"index" json:"managed_by"`
	ManagedBy     *Credential `gorm:"foreignKey:ManagedByID;constraint:OnDelete:SET NULL" json:"-"`
	OnboardedByID *uint       `gorm:"index" json:"onboarded_by"`
	OnboardedBy   *Credential `gorm:"foreignKey:OnboardedByID;constraint:OnDelete:SET NULL" json:"-"`
	IsActive      bool        `gorm:"default:true" json:"is_active"`
	IsStaff       bool        `gorm:"default:false" json:"is_staff"`
	IsSuperuser   bool        `gorm:"default:false" json:"is_superuser"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt     time.Time   `json:"date_joined"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasRole reports whether the credential's role id is exactly id.
func (c *Credential) HasRole(id uint) bool {
	return c != nil && c.RoleID != nil && *c.RoleID == id
}

// RoleName returns the loaded role's name, or nil when the credential has no role.
func (c *Credential) RoleName() *string {
	if c == nil || c.Role == nil {
		return nil
	}
	name := c.Role.Name
	return &name
}

// BeforeSave enforces the hierarchy invariants before anything is written:
// managed_by must point at an organization, onboarded_by at staff or a superuser.
// Superusers are exempt.
func (c *Credential) BeforeSave(tx *gorm.DB) error {
	if c.IsSuperuser {
		return nil
	}

	fields := map[string]string{}

	if c.ManagedByID != nil {
		if c.ID != 0 && *c.ManagedByID == c.ID {
			fields["managed_by"] = "a user cannot manage itself"
		} else {
			var manager Credential
			err := tx.Session(&gorm.Session{NewDB: true}).
				Select("id", "role_id").
				Where("id = ?", *c.ManagedByID).
				Take(&manager).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields["managed_by"] = "manager does not exist"
			case err != nil:
				return err
			case !manager.HasRole(RoleOrganization):
				fields["managed_by"] = "the manager must have role_id = 2"
			}
		}
	}

	if c.OnboardedByID != nil {
		var onboarder Credential
		err := tx.Session(&gorm.Session{NewDB: true}).
			Select("id", "is_staff", "is_superuser").
			Where("id = ?", *c.OnboardedByID).
			Take(&onboarder).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			fields["onboarded_by"] = "onboarding user does not exist"
		case err != nil:
			return err
		case !onboarder.IsStaff && !onboarder.IsSuperuser:
			fields["onboarded_by"] = "onboarded_by must be a staff or superuser"
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}
