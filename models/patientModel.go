package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Patient model
type Patient struct {
	ID             string          `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string          `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Title          string          `gorm:"column:title" json:"title"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Surname        string          `gorm:"column:surname;not null;index" json:"surname"`
	IDNumber       string          `gorm:"column:id_number;index" json:"id_number"`
	DateOfBirth    *datatypes.Date `gorm:"column:date_of_birth" json:"date_of_birth"`
	Gender         string          `gorm:"column:gender;check:gender IN ('', 'Male', 'Female', 'Other')" json:"gender"`
	Cell           string          `gorm:"column:cell" json:"cell"`
	Email          string          `gorm:"column:email" json:"email"`
	Address        string          `gorm:"column:address" json:"address"`
	Audit
	Files []PatientFile `gorm:"foreignKey:PatientID;references:ID" json:"files,omitempty"`
}

func (Patient) TableName() string {
	return "patient"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
