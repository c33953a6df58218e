package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentFulfilled = "fulfilled"
	AppointmentCancelled = "cancelled"
)

// Appointment model
type Appointment struct {
	ID             string    `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	PatientID      string    `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	UserID         string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title          string    `gorm:"column:title" json:"title"`
	Description    string    `gorm:"column:description;type:text" json:"description"`
	StartTime      time.Time `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime        time.Time `gorm:"column:end_time;not null" json:"end_time"`
	Status         string    `gorm:"column:status;check:status IN ('scheduled', 'fulfilled', 'cancelled');not null" json:"status"`
	Audit
	Patient *Patient `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	User    *User    `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (Appointment) TableName() string {
	return "appointment"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// ValidAppointmentStatus reports whether s is a known appointment status.
func ValidAppointmentStatus(s string) bool {
	return s == AppointmentScheduled || s == AppointmentFulfilled || s == AppointmentCancelled
}
