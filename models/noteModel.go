package models

import (
	"time"

	"gorm.io/gorm"
)

// TabNote is a timestamped entry on a file-patient link.
type TabNote struct {
	ID             string    `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	PatientFileID  string    `gorm:"column:patient_file_id;type:uuid;not null;index" json:"patient_file_id"`
	UserID         string    `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	TimeStamp      time.Time `gorm:"column:time_stamp;not null;index" json:"time_stamp"`
	Title          string    `gorm:"column:title" json:"title"`
	Notes          string    `gorm:"column:notes;type:text" json:"notes"`
	Audit
	Files       []TabFile    `gorm:"foreignKey:TabNoteID;references:ID" json:"files"`
	PatientFile *PatientFile `gorm:"foreignKey:PatientFileID;references:ID" json:"-"`
}

func (TabNote) TableName() string {
	return "tab_notes"
}

func (n *TabNote) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// TabFile is an uploaded attachment on a note.
type TabFile struct {
	ID             string `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	TabNoteID      string `gorm:"column:tab_note_id;type:uuid;not null;index" json:"tab_note_id"`
	FileName       string `gorm:"column:file_name;not null" json:"file_name"`
	ContentType    string `gorm:"column:content_type" json:"content_type"`
	Size           int64  `gorm:"column:size" json:"size"`
	StoragePath    string `gorm:"column:storage_path;not null" json:"-"`
	Audit
}

func (TabFile) TableName() string {
	return "tab_files"
}

func (f *TabFile) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}
