package models

import "time"

// Reference is the row shape shared by the asset lookup tables.
type Reference struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Entry gives generic code access to the shared columns.
func (r *Reference) Entry() *Reference { return r }

// ReferenceRecord is implemented by pointers to every lookup table type.
type ReferenceRecord interface {
	Entry() *Reference
}

type AssetType struct{ Reference }

type Breed struct{ Reference }

type Color struct{ Reference }

type VaccinationStatus struct{ Reference }

type DewormingStatus struct{ Reference }
