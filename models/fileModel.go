package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FileInfo is the administrative record a patient's cover and notes hang off.
type FileInfo struct {
	ID              string `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID  string `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_org_file_number;uniqueIndex:idx_org_file_seq" json:"organization_id"`
	FileNumber      string `gorm:"column:file_number;not null;uniqueIndex:idx_org_file_number" json:"file_number"`
	Sequence        int    `gorm:"column:sequence;not null;uniqueIndex:idx_org_file_seq" json:"-"`
	AccountCode     string `gorm:"column:account_code" json:"account_code"`
	ReferringDoctor string `gorm:"column:referring_doctor" json:"referring_doctor"`
	NotesSummary    string `gorm:"column:notes_summary;type:text" json:"notes_summary"`
	Audit
	Links []PatientFile `gorm:"foreignKey:FileID;references:ID" json:"links,omitempty"`
}

func (FileInfo) TableName() string {
	return "file_info"
}

func (f *FileInfo) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// PatientFile links a patient to a file. Notes belong to a link.
type PatientFile struct {
	ID             string    `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	PatientID      string    `gorm:"column:patient_id;type:uuid;not null;uniqueIndex:idx_patient_file" json:"patient_id"`
	FileID         string    `gorm:"column:file_id;type:uuid;not null;uniqueIndex:idx_patient_file" json:"file_id"`
	Audit
	Patient *Patient  `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	File    *FileInfo `gorm:"foreignKey:FileID;references:ID" json:"file,omitempty"`
}

func (PatientFile) TableName() string {
	return "patient_file"
}

func (l *PatientFile) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// PatientMedicalAid is the medical cover of a file, one per file.
type PatientMedicalAid struct {
	ID               string  `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID   string  `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	FileID           string  `gorm:"column:file_id;type:uuid;not null;uniqueIndex" json:"file_id"`
	MemberPatientID  *string `gorm:"column:member_patient_id;type:uuid;index" json:"member_patient_id"`
	MedicalAidName   string  `gorm:"column:medical_aid_name" json:"medical_aid_name"`
	Plan             string  `gorm:"column:plan" json:"plan"`
	MembershipNumber string  `gorm:"column:membership_number;index" json:"membership_number"`
	DependentCode    string  `gorm:"column:dependent_code" json:"dependent_code"`
	Audit
	Member *Patient `gorm:"foreignKey:MemberPatientID;references:ID" json:"member,omitempty"`
}

func (PatientMedicalAid) TableName() string {
	return "patient_medical_aid"
}

func (m *PatientMedicalAid) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// InjuryOnDuty holds employer claim details for a work-related injury file.
type InjuryOnDuty struct {
	ID             string          `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string          `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	FileID         string          `gorm:"column:file_id;type:uuid;not null;uniqueIndex" json:"file_id"`
	CompanyName    string          `gorm:"column:company_name" json:"company_name"`
	ContactPerson  string          `gorm:"column:contact_person" json:"contact_person"`
	ContactNumber  string          `gorm:"column:contact_number" json:"contact_number"`
	ContactEmail   string          `gorm:"column:contact_email" json:"contact_email"`
	ClaimNumber    string          `gorm:"column:claim_number" json:"claim_number"`
	InjuryDate     *datatypes.Date `gorm:"column:injury_date" json:"injury_date"`
	Audit
}

func (InjuryOnDuty) TableName() string {
	return "injury_on_duty"
}

func (i *InjuryOnDuty) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
