package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

type CreateFileInput struct {
	PatientID       string `json:"patient_id" binding:"required"`
	AccountCode     string `json:"account_code"`
	ReferringDoctor string `json:"referring_doctor"`
	NotesSummary    string `json:"notes_summary"`
}

// FileInfoInput updates file_info. Nil fields are left alone.
type FileInfoInput struct {
	AccountCode     *string `json:"account_code"`
	ReferringDoctor *string `json:"referring_doctor"`
	NotesSummary    *string `json:"notes_summary"`
}

// MemberInput is the main member of a medical aid. With an id it updates
// that patient, without one it creates a new patient.
type MemberInput struct {
	ID string `json:"id"`
	PatientInput
}

type MedicalAidInput struct {
	MedicalAidName   string       `json:"medical_aid_name"`
	Plan             string       `json:"plan"`
	MembershipNumber string       `json:"membership_number"`
	DependentCode    string       `json:"dependent_code"`
	MemberPatientID  *string      `json:"member_patient_id"`
	Member           *MemberInput `json:"member"`
}

type InjuryOnDutyInput struct {
	CompanyName   string          `json:"company_name"`
	ContactPerson string          `json:"contact_person"`
	ContactNumber string          `json:"contact_number"`
	ContactEmail  string          `json:"contact_email"`
	ClaimNumber   string          `json:"claim_number"`
	InjuryDate    *datatypes.Date `json:"injury_date"`
}

// SaveFileDataInput is the file editor payload. Sections that are absent
// are not touched.
type SaveFileDataInput struct {
	File         *FileInfoInput     `json:"file"`
	MedicalAid   *MedicalAidInput   `json:"medical_aid"`
	InjuryOnDuty *InjuryOnDutyInput `json:"injury_on_duty"`
	Patients     []string           `json:"patients"`
}

// FileData is everything the file editor shows.
type FileData struct {
	File         *models.FileInfo          `json:"file"`
	Patients     []models.Patient          `json:"patients"`
	MedicalAid   *models.PatientMedicalAid `json:"medical_aid"`
	InjuryOnDuty *models.InjuryOnDuty      `json:"injury_on_duty"`
	Notes        []models.TabNote          `json:"notes"`
}

type FileService interface {
	List(ctx context.Context, orgID, search string, page utils.Pagination) (utils.Page[models.FileInfo], error)
	Create(ctx context.Context, orgID string, in CreateFileInput) (*models.FileInfo, error)
	GetFileData(ctx context.Context, orgID, fileID string) (*FileData, error)
	SaveFileData(ctx context.Context, orgID, fileID string, in SaveFileDataInput) (*FileData, error)
	Delete(ctx context.Context, orgID, fileID string) error
}

type fileService struct {
	store  repositories.Store
	locker Locker
	log    zerolog.Logger
}

func NewFileService(store repositories.Store, locker Locker, log zerolog.Logger) FileService {
	return &fileService{store: store, locker: locker, log: log}
}

func (s *fileService) List(ctx context.Context, orgID, search string, page utils.Pagination) (utils.Page[models.FileInfo], error) {
	files, total, err := s.store.Files().List(ctx, orgID, strings.TrimSpace(search), page)
	if err != nil {
		return utils.Page[models.FileInfo]{}, err
	}
	return utils.NewPage(files, total, page), nil
}

// Create opens a new file for a patient with the next file number of the
// organization.
func (s *fileService) Create(ctx context.Context, orgID string, in CreateFileInput) (*models.FileInfo, error) {
	if _, err := s.store.Patients().GetByID(ctx, orgID, in.PatientID); err != nil {
		return nil, err
	}

	var fileID string
	err := withLock(ctx, s.locker, s.log, "file_number:"+orgID, func() error {
		return s.store.Transaction(ctx, func(tx repositories.Store) error {
			org, err := tx.Organizations().GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			seq, err := tx.Files().NextSequence(ctx, orgID)
			if err != nil {
				return err
			}
			file := models.FileInfo{
				OrganizationID:  orgID,
				FileNumber:      utils.FormatFileNumber(org.FilePrefix, seq),
				Sequence:        seq,
				AccountCode:     strings.TrimSpace(in.AccountCode),
				ReferringDoctor: strings.TrimSpace(in.ReferringDoctor),
				NotesSummary:    strings.TrimSpace(in.NotesSummary),
			}
			if err := tx.Files().Create(ctx, &file); err != nil {
				return err
			}
			fileID = file.ID
			return tx.Files().Link(ctx, orgID, file.ID, in.PatientID)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.store.Files().GetByID(ctx, orgID, fileID)
}

func (s *fileService) GetFileData(ctx context.Context, orgID, fileID string) (*FileData, error) {
	return loadFileData(ctx, s.store, orgID, fileID)
}

func loadFileData(ctx context.Context, store repositories.Store, orgID, fileID string) (*FileData, error) {
	file, err := store.Files().GetByID(ctx, orgID, fileID)
	if err != nil {
		return nil, err
	}
	data := &FileData{File: file, Patients: []models.Patient{}}
	for _, link := range file.Links {
		if link.Patient != nil {
			data.Patients = append(data.Patients, *link.Patient)
		}
	}
	if data.MedicalAid, err = store.Files().GetMedicalAid(ctx, orgID, fileID); err != nil {
		return nil, err
	}
	if data.InjuryOnDuty, err = store.Files().GetInjuryOnDuty(ctx, orgID, fileID); err != nil {
		return nil, err
	}
	if data.Notes, err = store.Notes().ListByFile(ctx, orgID, fileID); err != nil {
		return nil, err
	}
	if data.Notes == nil {
		data.Notes = []models.TabNote{}
	}
	return data, nil
}

// SaveFileData applies the sections present in the payload in a single
// transaction while holding the file's lock.
func (s *fileService) SaveFileData(ctx context.Context, orgID, fileID string, in SaveFileDataInput) (*FileData, error) {
	err := withLock(ctx, s.locker, s.log, "file:"+fileID, func() error {
		return s.store.Transaction(ctx, func(tx repositories.Store) error {
			if _, err := tx.Files().GetByID(ctx, orgID, fileID); err != nil {
				return err
			}
			if in.File != nil {
				if err := tx.Files().UpdateInfo(ctx, orgID, fileID, in.File.fields()); err != nil {
					return err
				}
			}
			if in.Patients != nil {
				if err := linkPatients(ctx, tx, orgID, fileID, in.Patients); err != nil {
					return err
				}
			}
			if in.MedicalAid != nil {
				if err := saveMedicalAid(ctx, tx, orgID, fileID, in.MedicalAid); err != nil {
					return err
				}
			}
			if in.InjuryOnDuty != nil {
				if err := saveInjuryOnDuty(ctx, tx, orgID, fileID, in.InjuryOnDuty); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return loadFileData(ctx, s.store, orgID, fileID)
}

func (in *FileInfoInput) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if in.AccountCode != nil {
		fields["account_code"] = strings.TrimSpace(*in.AccountCode)
	}
	if in.ReferringDoctor != nil {
		fields["referring_doctor"] = strings.TrimSpace(*in.ReferringDoctor)
	}
	if in.NotesSummary != nil {
		fields["notes_summary"] = strings.TrimSpace(*in.NotesSummary)
	}
	return fields
}

func linkPatients(ctx context.Context, tx repositories.Store, orgID, fileID string, ids []string) error {
	ids = utils.UniqueStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	count, err := tx.Patients().CountInOrg(ctx, orgID, ids)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return apperrors.BadRequest("one or more patients do not exist in this practice")
	}
	for _, id := range ids {
		if err := tx.Files().Link(ctx, orgID, fileID, id); err != nil {
			return err
		}
	}
	return nil
}

func saveMedicalAid(ctx context.Context, tx repositories.Store, orgID, fileID string, in *MedicalAidInput) error {
	memberID := in.MemberPatientID
	if memberID != nil && *memberID == "" {
		memberID = nil
	}
	if memberID != nil && in.Member == nil {
		if _, err := tx.Patients().GetByID(ctx, orgID, *memberID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.BadRequest("medical aid member does not exist in this practice")
			}
			return err
		}
	}

	if in.Member != nil {
		member := &models.Patient{OrganizationID: orgID}
		if in.Member.ID != "" {
			existing, err := tx.Patients().GetByID(ctx, orgID, in.Member.ID)
			if err != nil {
				return err
			}
			member = existing
		}
		in.Member.PatientInput.apply(member)
		if err := savePatient(ctx, tx.Patients(), member); err != nil {
			return err
		}
		memberID = &member.ID
	}

	aid := models.PatientMedicalAid{
		OrganizationID:   orgID,
		FileID:           fileID,
		MemberPatientID:  memberID,
		MedicalAidName:   strings.TrimSpace(in.MedicalAidName),
		Plan:             strings.TrimSpace(in.Plan),
		MembershipNumber: strings.TrimSpace(in.MembershipNumber),
		DependentCode:    strings.TrimSpace(in.DependentCode),
	}
	return tx.Files().UpsertMedicalAid(ctx, &aid)
}

func saveInjuryOnDuty(ctx context.Context, tx repositories.Store, orgID, fileID string, in *InjuryOnDutyInput) error {
	iod := models.InjuryOnDuty{
		OrganizationID: orgID,
		FileID:         fileID,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		ContactPerson:  strings.TrimSpace(in.ContactPerson),
		ContactNumber:  strings.TrimSpace(in.ContactNumber),
		ContactEmail:   utils.NormalizeEmail(in.ContactEmail),
		ClaimNumber:    strings.TrimSpace(in.ClaimNumber),
		InjuryDate:     in.InjuryDate,
	}
	if err := utils.ValidateInjuryOnDuty(iod); err != nil {
		return validationError(err)
	}
	return tx.Files().UpsertInjuryOnDuty(ctx, &iod)
}

func (s *fileService) Delete(ctx context.Context, orgID, fileID string) error {
	return withLock(ctx, s.locker, s.log, "file:"+fileID, func() error {
		return s.store.Files().Delete(ctx, orgID, fileID)
	})
}
