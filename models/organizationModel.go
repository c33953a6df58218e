package models

import "gorm.io/gorm"

// Organization is a practice, the tenant that owns every other row.
type Organization struct {
	ID             string `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	Name           string `gorm:"column:name;not null" json:"name"`
	PracticeName   string `gorm:"column:practice_name" json:"practice_name"`
	PracticeNumber string `gorm:"column:practice_number;index" json:"practice_number"`
	FilePrefix     string `gorm:"column:file_prefix;size:8;not null" json:"file_prefix"`
	Phone          string `gorm:"column:phone" json:"phone"`
	Email          string `gorm:"column:email" json:"email"`
	Address        string `gorm:"column:address" json:"address"`
	LogoPath       string `gorm:"column:logo_path" json:"logo_path"`
	ConsentPath    string `gorm:"column:consent_path" json:"consent_path"`
	Audit
}

func (Organization) TableName() string {
	return "organization"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}
