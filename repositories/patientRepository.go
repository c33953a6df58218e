package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"PracticeManager/models"
	"PracticeManager/utils"
)

// patientColumns are the columns a patient update may touch.
var patientColumns = []string{
	"title", "name", "surname", "id_number", "date_of_birth", "gender", "cell", "email", "address", "last_edit",
}

type PatientRepository interface {
	List(ctx context.Context, orgID, search string, page utils.Pagination) ([]models.Patient, int64, error)
	GetByID(ctx context.Context, orgID, id string) (*models.Patient, error)
	IDNumberExists(ctx context.Context, orgID, idNumber, excludeID string) (bool, error)
	CountInOrg(ctx context.Context, orgID string, ids []string) (int64, error)
	Create(ctx context.Context, patient *models.Patient) error
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, orgID, id string) error
	ListFiles(ctx context.Context, orgID, patientID string) ([]models.FileInfo, error)
}

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) List(ctx context.Context, orgID, search string, page utils.Pagination) ([]models.Patient, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Patient{}).Scopes(tenant("patient", orgID))
		if search != "" {
			like := utils.LikePattern(search)
			q = q.Where("(patient.name ILIKE ? OR patient.surname ILIKE ? OR patient.id_number ILIKE ?)", like, like, like)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	var patients []models.Patient
	err := query().
		Order("patient.surname ASC, patient.name ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&patients).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *patientRepository) GetByID(ctx context.Context, orgID, id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Scopes(tenant("patient", orgID)).
		Preload("Files", activeOnly).
		Preload("Files.File", activeOnly).
		First(&patient, "patient.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "patient")
	}
	return &patient, nil
}

func (r *patientRepository) IDNumberExists(ctx context.Context, orgID, idNumber, excludeID string) (bool, error) {
	if idNumber == "" {
		return false, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Patient{}).
		Scopes(tenant("patient", orgID)).
		Where("id_number = ?", idNumber)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check id number: %w", err)
	}
	return count > 0, nil
}

// CountInOrg counts how many of ids are active patients of the organization.
func (r *patientRepository) CountInOrg(ctx context.Context, orgID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).
		Scopes(tenant("patient", orgID)).
		Where("id IN ?", ids).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Omit("Files").Create(patient).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	res := r.db.WithContext(ctx).Model(patient).
		Where("organization_id = ? AND active = ?", patient.OrganizationID, true).
		Select(patientColumns).
		Updates(patient)
	return affected(res, "patient")
}

// Delete deactivates the patient and its file links.
func (r *patientRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Patient{}).
			Where("id = ? AND organization_id = ? AND active = ?", id, orgID, true).
			Update("active", false)
		if err := affected(res, "patient"); err != nil {
			return err
		}
		err := tx.Model(&models.PatientFile{}).
			Where("patient_id = ? AND organization_id = ?", id, orgID).
			Update("active", false).Error
		if err != nil {
			return fmt.Errorf("failed to unlink patient files: %w", err)
		}
		return nil
	})
}

func (r *patientRepository) ListFiles(ctx context.Context, orgID, patientID string) ([]models.FileInfo, error) {
	var files []models.FileInfo
	err := r.db.WithContext(ctx).
		Scopes(tenant("file_info", orgID)).
		Joins("JOIN patient_file pf ON pf.file_id = file_info.id AND pf.active = ?", true).
		Where("pf.patient_id = ?", patientID).
		Order("file_info.sequence DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list patient files: %w", err)
	}
	return files, nil
}
