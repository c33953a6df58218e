package services

import (
	"context"
	"strings"

	"gorm.io/datatypes"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

// PatientInput is the editable part of a patient.
type PatientInput struct {
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Surname     string          `json:"surname"`
	IDNumber    string          `json:"id_number"`
	DateOfBirth *datatypes.Date `json:"date_of_birth"`
	Gender      string          `json:"gender"`
	Cell        string          `json:"cell"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
}

func (in PatientInput) apply(p *models.Patient) {
	p.Title = strings.TrimSpace(in.Title)
	p.Name = strings.TrimSpace(in.Name)
	p.Surname = strings.TrimSpace(in.Surname)
	p.IDNumber = strings.TrimSpace(in.IDNumber)
	p.DateOfBirth = in.DateOfBirth
	p.Gender = in.Gender
	p.Cell = strings.TrimSpace(in.Cell)
	p.Email = utils.NormalizeEmail(in.Email)
	p.Address = strings.TrimSpace(in.Address)
}

type PatientService interface {
	List(ctx context.Context, orgID, search string, page utils.Pagination) (utils.Page[models.Patient], error)
	Get(ctx context.Context, orgID, id string) (*models.Patient, error)
	Create(ctx context.Context, orgID string, in PatientInput) (*models.Patient, error)
	Update(ctx context.Context, orgID, id string, in PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, orgID, id string) error
	ListFiles(ctx context.Context, orgID, id string) ([]models.FileInfo, error)
}

type patientService struct {
	store repositories.Store
}

func NewPatientService(store repositories.Store) PatientService {
	return &patientService{store: store}
}

func (s *patientService) List(ctx context.Context, orgID, search string, page utils.Pagination) (utils.Page[models.Patient], error) {
	patients, total, err := s.store.Patients().List(ctx, orgID, strings.TrimSpace(search), page)
	if err != nil {
		return utils.Page[models.Patient]{}, err
	}
	return utils.NewPage(patients, total, page), nil
}

func (s *patientService) Get(ctx context.Context, orgID, id string) (*models.Patient, error) {
	return s.store.Patients().GetByID(ctx, orgID, id)
}

func (s *patientService) Create(ctx context.Context, orgID string, in PatientInput) (*models.Patient, error) {
	patient := models.Patient{OrganizationID: orgID}
	in.apply(&patient)
	if err := savePatient(ctx, s.store.Patients(), &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *patientService) Update(ctx context.Context, orgID, id string, in PatientInput) (*models.Patient, error) {
	patient, err := s.store.Patients().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	in.apply(patient)
	if err := savePatient(ctx, s.store.Patients(), patient); err != nil {
		return nil, err
	}
	return s.store.Patients().GetByID(ctx, orgID, id)
}

// savePatient validates and then creates or updates a patient, keeping id
// numbers unique inside the organization.
func savePatient(ctx context.Context, patients repositories.PatientRepository, p *models.Patient) error {
	if err := utils.ValidatePatient(*p); err != nil {
		return validationError(err)
	}
	exists, err := patients.IDNumberExists(ctx, p.OrganizationID, p.IDNumber, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Conflict("a patient with this id number already exists")
	}
	if p.ID == "" {
		return patients.Create(ctx, p)
	}
	return patients.Update(ctx, p)
}

func (s *patientService) Delete(ctx context.Context, orgID, id string) error {
	return s.store.Patients().Delete(ctx, orgID, id)
}

func (s *patientService) ListFiles(ctx context.Context, orgID, id string) ([]models.FileInfo, error) {
	if _, err := s.store.Patients().GetByID(ctx, orgID, id); err != nil {
		return nil, err
	}
	return s.store.Patients().ListFiles(ctx, orgID, id)
}
