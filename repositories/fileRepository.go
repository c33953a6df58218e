package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PracticeManager/models"
	"PracticeManager/utils"
)

type FileRepository interface {
	List(ctx context.Context, orgID, search string, page utils.Pagination) ([]models.FileInfo, int64, error)
	GetByID(ctx context.Context, orgID, id string) (*models.FileInfo, error)
	NextSequence(ctx context.Context, orgID string) (int, error)
	Create(ctx context.Context, file *models.FileInfo) error
	UpdateInfo(ctx context.Context, orgID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, orgID, id string) error

	Link(ctx context.Context, orgID, fileID, patientID string) error
	Links(ctx context.Context, orgID, fileID string) ([]models.PatientFile, error)

	GetMedicalAid(ctx context.Context, orgID, fileID string) (*models.PatientMedicalAid, error)
	UpsertMedicalAid(ctx context.Context, aid *models.PatientMedicalAid) error
	GetInjuryOnDuty(ctx context.Context, orgID, fileID string) (*models.InjuryOnDuty, error)
	UpsertInjuryOnDuty(ctx context.Context, iod *models.InjuryOnDuty) error
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) List(ctx context.Context, orgID, search string, page utils.Pagination) ([]models.FileInfo, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.FileInfo{}).Scopes(tenant("file_info", orgID))
		if search != "" {
			like := utils.LikePattern(search)
			q = q.Where(`(file_info.file_number ILIKE ? OR file_info.account_code ILIKE ? OR file_info.id IN (
				SELECT pf.file_id FROM patient_file pf JOIN patient p ON p.id = pf.patient_id
				WHERE pf.active AND p.active AND (p.name ILIKE ? OR p.surname ILIKE ? OR p.id_number ILIKE ?)))`,
				like, like, like, like, like)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	var files []models.FileInfo
	err := query().
		Preload("Links", activeOnly).
		Preload("Links.Patient", activeOnly).
		Order("file_info.sequence DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&files).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	return files, total, nil
}

func (r *fileRepository) GetByID(ctx context.Context, orgID, id string) (*models.FileInfo, error) {
	var file models.FileInfo
	err := r.db.WithContext(ctx).
		Scopes(tenant("file_info", orgID)).
		Preload("Links", activeOnly).
		Preload("Links.Patient", activeOnly).
		First(&file, "file_info.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "file")
	}
	return &file, nil
}

// NextSequence returns the next file sequence of the organization.
// Deleted files keep their number so they are counted too.
func (r *fileRepository) NextSequence(ctx context.Context, orgID string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Model(&models.FileInfo{}).
		Select("COALESCE(MAX(sequence), 0) + 1").
		Where("organization_id = ?", orgID).
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to obtain next file sequence: %w", err)
	}
	return next, nil
}

func (r *fileRepository) Create(ctx context.Context, file *models.FileInfo) error {
	if err := r.db.WithContext(ctx).Omit("Links").Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *fileRepository) UpdateInfo(ctx context.Context, orgID, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.FileInfo{}).
		Where("id = ? AND organization_id = ? AND active = ?", id, orgID, true).
		Updates(fields)
	return affected(res, "file")
}

// Delete deactivates the file with its links, cover, injury details,
// notes and attachments.
func (r *fileRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FileInfo{}).
			Where("id = ? AND organization_id = ? AND active = ?", id, orgID, true).
			Update("active", false)
		if err := affected(res, "file"); err != nil {
			return err
		}

		links := tx.Model(&models.PatientFile{}).Select("id").Where("file_id = ?", id)
		notes := tx.Model(&models.TabNote{}).Select("id").Where("patient_file_id IN (?)", links)

		steps := []struct {
			model interface{}
			where string
			arg   interface{}
		}{
			{&models.TabFile{}, "tab_note_id IN (?)", notes},
			{&models.TabNote{}, "patient_file_id IN (?)", links},
			{&models.PatientMedicalAid{}, "file_id = ?", id},
			{&models.InjuryOnDuty{}, "file_id = ?", id},
			{&models.PatientFile{}, "file_id = ?", id},
		}
		for _, s := range steps {
			err := tx.Model(s.model).
				Where(s.where, s.arg).
				Where("organization_id = ? AND active = ?", orgID, true).
				Update("active", false).Error
			if err != nil {
				return fmt.Errorf("failed to delete file data: %w", err)
			}
		}
		return nil
	})
}

// Link makes sure patientID is linked to fileID, reviving a deleted link.
func (r *fileRepository) Link(ctx context.Context, orgID, fileID, patientID string) error {
	link := models.PatientFile{OrganizationID: orgID, FileID: fileID, PatientID: patientID}
	err := r.db.WithContext(ctx).Omit("Patient", "File").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "patient_id"}, {Name: "file_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active":    true,
			"last_edit": time.Now(),
		}),
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("failed to link patient to file: %w", err)
	}
	return nil
}

func (r *fileRepository) Links(ctx context.Context, orgID, fileID string) ([]models.PatientFile, error) {
	var links []models.PatientFile
	err := r.db.WithContext(ctx).
		Scopes(tenant("patient_file", orgID)).
		Preload("Patient", activeOnly).
		Where("file_id = ?", fileID).
		Order("date_created ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list file links: %w", err)
	}
	return links, nil
}

// GetMedicalAid returns nil when the file has no medical aid.
func (r *fileRepository) GetMedicalAid(ctx context.Context, orgID, fileID string) (*models.PatientMedicalAid, error) {
	var aids []models.PatientMedicalAid
	err := r.db.WithContext(ctx).
		Scopes(tenant("patient_medical_aid", orgID)).
		Preload("Member", activeOnly).
		Where("file_id = ?", fileID).
		Limit(1).
		Find(&aids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get medical aid: %w", err)
	}
	if len(aids) == 0 {
		return nil, nil
	}
	return &aids[0], nil
}

// UpsertMedicalAid inserts or replaces the medical aid of aid.FileID.
func (r *fileRepository) UpsertMedicalAid(ctx context.Context, aid *models.PatientMedicalAid) error {
	aid.Active = true
	err := r.db.WithContext(ctx).Omit("Member").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"member_patient_id", "medical_aid_name", "plan", "membership_number", "dependent_code", "active", "last_edit",
		}),
	}).Create(aid).Error
	if err != nil {
		return fmt.Errorf("failed to save medical aid: %w", err)
	}
	return nil
}

// GetInjuryOnDuty returns nil when the file has no injury details.
func (r *fileRepository) GetInjuryOnDuty(ctx context.Context, orgID, fileID string) (*models.InjuryOnDuty, error) {
	var rows []models.InjuryOnDuty
	err := r.db.WithContext(ctx).
		Scopes(tenant("injury_on_duty", orgID)).
		Where("file_id = ?", fileID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get injury on duty: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *fileRepository) UpsertInjuryOnDuty(ctx context.Context, iod *models.InjuryOnDuty) error {
	iod.Active = true
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "contact_person", "contact_number", "contact_email", "claim_number", "injury_date", "active", "last_edit",
		}),
	}).Create(iod).Error
	if err != nil {
		return fmt.Errorf("failed to save injury on duty: %w", err)
	}
	return nil
}
