package services

import (
	"context"
	"strings"
	"time"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

// AppointmentInput is the body of create and update. An empty status keeps
// the current one, or starts a new appointment as scheduled.
type AppointmentInput struct {
	PatientID   string    `json:"patient_id" binding:"required"`
	UserID      string    `json:"user_id" binding:"required"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Status      string    `json:"status"`
}

func (in AppointmentInput) apply(a *models.Appointment) {
	a.PatientID = strings.TrimSpace(in.PatientID)
	a.UserID = strings.TrimSpace(in.UserID)
	a.Title = strings.TrimSpace(in.Title)
	a.Description = in.Description
	a.StartTime = in.StartTime.UTC()
	a.EndTime = in.EndTime.UTC()
	if in.Status != "" {
		a.Status = in.Status
	}
	if a.Status == "" {
		a.Status = models.AppointmentScheduled
	}
}

type AppointmentService interface {
	List(ctx context.Context, orgID string, filter repositories.AppointmentFilter) ([]models.Appointment, error)
	Get(ctx context.Context, orgID, id string) (*models.Appointment, error)
	Create(ctx context.Context, orgID string, in AppointmentInput) (*models.Appointment, error)
	Update(ctx context.Context, orgID, id string, in AppointmentInput) (*models.Appointment, error)
	Delete(ctx context.Context, orgID, id string) error
}

type appointmentService struct {
	store repositories.Store
}

func NewAppointmentService(store repositories.Store) AppointmentService {
	return &appointmentService{store: store}
}

func (s *appointmentService) List(ctx context.Context, orgID string, filter repositories.AppointmentFilter) ([]models.Appointment, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, apperrors.BadRequest("to must be after from")
	}
	appointments, err := s.store.Appointments().List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}
	return appointments, nil
}

func (s *appointmentService) Get(ctx context.Context, orgID, id string) (*models.Appointment, error) {
	return s.store.Appointments().GetByID(ctx, orgID, id)
}

func (s *appointmentService) Create(ctx context.Context, orgID string, in AppointmentInput) (*models.Appointment, error) {
	appointment := models.Appointment{OrganizationID: orgID}
	in.apply(&appointment)
	if err := s.check(ctx, &appointment); err != nil {
		return nil, err
	}
	if err := s.store.Appointments().Create(ctx, &appointment); err != nil {
		return nil, err
	}
	return s.store.Appointments().GetByID(ctx, orgID, appointment.ID)
}

func (s *appointmentService) Update(ctx context.Context, orgID, id string, in AppointmentInput) (*models.Appointment, error) {
	appointment, err := s.store.Appointments().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	in.apply(appointment)
	appointment.Patient, appointment.User = nil, nil
	if err := s.check(ctx, appointment); err != nil {
		return nil, err
	}
	if err := s.store.Appointments().Update(ctx, appointment); err != nil {
		return nil, err
	}
	return s.store.Appointments().GetByID(ctx, orgID, id)
}

// check validates the entry, makes sure the patient and practitioner are
// part of the organization and rejects double bookings.
func (s *appointmentService) check(ctx context.Context, a *models.Appointment) error {
	if err := utils.ValidateAppointment(*a); err != nil {
		return validationError(err)
	}
	if _, err := s.store.Patients().GetByID(ctx, a.OrganizationID, a.PatientID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.BadRequest("patient does not exist in this practice")
		}
		return err
	}
	if _, err := s.store.Users().GetUserByID(ctx, a.OrganizationID, a.UserID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.BadRequest("practitioner does not exist in this practice")
		}
		return err
	}
	if a.Status == models.AppointmentCancelled {
		return nil
	}
	overlap, err := s.store.Appointments().HasOverlap(ctx, a.OrganizationID, a.UserID, a.StartTime, a.EndTime, a.ID)
	if err != nil {
		return err
	}
	if overlap {
		return apperrors.Conflict("the practitioner already has an appointment at this time")
	}
	return nil
}

func (s *appointmentService) Delete(ctx context.Context, orgID, id string) error {
	return s.store.Appointments().Delete(ctx, orgID, id)
}
