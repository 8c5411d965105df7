package models

import "time"

// Asset is a registered animal owned by a credential. Lookup references are
// cleared, not cascaded, when the referenced entry is deleted.
type Asset struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	OwnerID             uint               `gorm:"index;not null" json:"owner_id"`
	Owner               *Credential        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedByID         *uint              `json:"created_by"`
	CreatedBy           *Credential        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UpdatedByID         *uint              `json:"updated_by"`
	UpdatedBy           *Credential        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ReferenceID         string             `gorm:"size:64;uniqueIndex;not null" json:"reference_id"`
	AssetTypeID         *uint              `gorm:"index" json:"asset_type_id"`
	AssetType           *AssetType         `gorm:"constraint:OnDelete:SET NULL" json:"asset_type,omitempty"`
	BreedID             *uint              `json:"breed_id"`
	Breed               *Breed             `gorm:"constraint:OnDelete:SET NULL" json:"breed,omitempty"`
	ColorID             *uint              `json:"color_id"`
	Color               *Color             `gorm:"constraint:OnDelete:SET NULL" json:"color,omitempty"`
	AgeInMonths         int                `json:"age_in_months"`
	WeightKg            float64            `json:"weight_kg"`
	VaccinationStatusID *uint              `json:"vaccination_status_id"`
	VaccinationStatus   *VaccinationStatus `gorm:"constraint:OnDelete:SET NULL" json:"vaccination_status,omitempty"`
	LastVaccinationDate *time.Time         `json:"last_vaccination_date"`
	DewormingStatusID   *uint              `json:"deworming_status_id"`
	DewormingStatus     *DewormingStatus   `gorm:"constraint:OnDelete:SET NULL" json:"deworming_status,omitempty"`
	LastDewormingDate   *time.Time         `json:"last_deworming_date"`
	SpecialMark         string             `json:"special_mark"`
	HealthIssues        string             `json:"health_issues"`
	Remarks             string             `json:"remarks"`
	IsActive            bool               `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
