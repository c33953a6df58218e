package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"PracticeManager/models"
)

var appointmentColumns = []string{
	"patient_id", "user_id", "title", "description", "start_time", "end_time", "status", "last_edit",
}

// AppointmentFilter narrows a calendar listing. Zero values are ignored.
type AppointmentFilter struct {
	From      time.Time
	To        time.Time
	UserID    string
	PatientID string
}

type AppointmentRepository interface {
	List(ctx context.Context, orgID string, filter AppointmentFilter) ([]models.Appointment, error)
	GetByID(ctx context.Context, orgID, id string) (*models.Appointment, error)
	HasOverlap(ctx context.Context, orgID, userID string, start, end time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, orgID, id string) error
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) withPeople(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Patient").
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, organization_id, username, email, name, surname, role_id, active")
		})
}

func (r *appointmentRepository) List(ctx context.Context, orgID string, filter AppointmentFilter) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).Scopes(tenant("appointment", orgID), r.withPeople)
	if !filter.From.IsZero() {
		q = q.Where("end_time > ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_time < ?", filter.To)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}

	var appointments []models.Appointment
	if err := q.Order("start_time ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, orgID, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Scopes(tenant("appointment", orgID), r.withPeople).
		First(&appointment, "appointment.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "appointment")
	}
	return &appointment, nil
}

// HasOverlap reports whether the practitioner already has a live
// appointment intersecting [start, end).
func (r *appointmentRepository) HasOverlap(ctx context.Context, orgID, userID string, start, end time.Time, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Scopes(tenant("appointment", orgID)).
		Where("user_id = ? AND status <> ?", userID, models.AppointmentCancelled).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check appointment overlap: %w", err)
	}
	return count > 0, nil
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if err := r.db.WithContext(ctx).Omit("Patient", "User").Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	res := r.db.WithContext(ctx).Model(appointment).
		Where("organization_id = ? AND active = ?", appointment.OrganizationID, true).
		Select(appointmentColumns).
		Updates(appointment)
	return affected(res, "appointment")
}

func (r *appointmentRepository) Delete(ctx context.Context, orgID, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND organization_id = ? AND active = ?", id, orgID, true).
		Update("active", false)
	return affected(res, "appointment")
}
