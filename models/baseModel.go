package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit carries the soft-delete flag and audit timestamps every tenant row has.
type Audit struct {
	Active      bool      `gorm:"column:active;not null;default:true;index" json:"active"`
	DateCreated time.Time `gorm:"column:date_created;autoCreateTime" json:"date_created"`
	LastEdit    time.Time `gorm:"column:last_edit;autoUpdateTime" json:"last_edit"`
}

// assignID fills an empty string primary key with a new UUID.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
