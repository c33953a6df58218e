package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"PracticeManager/apperrors"
)

// Store groups the repositories so a service can run several of them in
// one database transaction.
type Store interface {
	Organizations() OrganizationRepository
	Patients() PatientRepository
	Files() FileRepository
	Notes() NoteRepository
	Appointments() AppointmentRepository
	Users() UserRepository

	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Organizations() OrganizationRepository { return NewOrganizationRepository(s.db) }
func (s *gormStore) Patients() PatientRepository           { return NewPatientRepository(s.db) }
func (s *gormStore) Files() FileRepository                 { return NewFileRepository(s.db) }
func (s *gormStore) Notes() NoteRepository                 { return NewNoteRepository(s.db) }
func (s *gormStore) Appointments() AppointmentRepository   { return NewAppointmentRepository(s.db) }
func (s *gormStore) Users() UserRepository                 { return NewUserRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// tenant restricts a query to the active rows of one organization.
func tenant(table, orgID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".organization_id = ? AND "+table+".active = ?", orgID, true)
	}
}

func activeOnly(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(what + " not found")
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// affected turns an update that matched no row into a 404.
func affected(res *gorm.DB, what string) error {
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(what + " not found")
	}
	return nil
}
