package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"PracticeManager/models"
)

type NoteRepository interface {
	ListByFile(ctx context.Context, orgID, fileID string) ([]models.TabNote, error)
	GetByID(ctx context.Context, orgID, fileID, noteID string) (*models.TabNote, error)
	Create(ctx context.Context, note *models.TabNote) error
	Update(ctx context.Context, orgID, noteID string, fields map[string]interface{}) error
	Delete(ctx context.Context, orgID, noteID string) error

	AddAttachment(ctx context.Context, file *models.TabFile) error
	GetAttachment(ctx context.Context, orgID, noteID, attachmentID string) (*models.TabFile, error)
	DeleteAttachment(ctx context.Context, orgID, attachmentID string) error
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) byFile(ctx context.Context, orgID, fileID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant("tab_notes", orgID)).
		Joins("JOIN patient_file pf ON pf.id = tab_notes.patient_file_id AND pf.active = ?", true).
		Where("pf.file_id = ?", fileID).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("date_created ASC")
		})
}

// ListByFile returns the notes of every patient on the file, newest first.
func (r *noteRepository) ListByFile(ctx context.Context, orgID, fileID string) ([]models.TabNote, error) {
	var notes []models.TabNote
	err := r.byFile(ctx, orgID, fileID).
		Order("tab_notes.time_stamp DESC, tab_notes.date_created DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) GetByID(ctx context.Context, orgID, fileID, noteID string) (*models.TabNote, error) {
	var note models.TabNote
	err := r.byFile(ctx, orgID, fileID).First(&note, "tab_notes.id = ?", noteID).Error
	if err != nil {
		return nil, notFound(err, "note")
	}
	return &note, nil
}

func (r *noteRepository) Create(ctx context.Context, note *models.TabNote) error {
	if err := r.db.WithContext(ctx).Omit("Files", "PatientFile").Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) Update(ctx context.Context, orgID, noteID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.TabNote{}).
		Where("id = ? AND organization_id = ? AND active = ?", noteID, orgID, true).
		Updates(fields)
	return affected(res, "note")
}

// Delete deactivates the note and its attachments.
func (r *noteRepository) Delete(ctx context.Context, orgID, noteID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TabNote{}).
			Where("id = ? AND organization_id = ? AND active = ?", noteID, orgID, true).
			Update("active", false)
		if err := affected(res, "note"); err != nil {
			return err
		}
		err := tx.Model(&models.TabFile{}).
			Where("tab_note_id = ? AND organization_id = ? AND active = ?", noteID, orgID, true).
			Update("active", false).Error
		if err != nil {
			return fmt.Errorf("failed to delete note attachments: %w", err)
		}
		return nil
	})
}

func (r *noteRepository) AddAttachment(ctx context.Context, file *models.TabFile) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}
	return nil
}

func (r *noteRepository) GetAttachment(ctx context.Context, orgID, noteID, attachmentID string) (*models.TabFile, error) {
	var file models.TabFile
	err := r.db.WithContext(ctx).
		Scopes(tenant("tab_files", orgID)).
		Where("tab_note_id = ?", noteID).
		First(&file, "id = ?", attachmentID).Error
	if err != nil {
		return nil, notFound(err, "attachment")
	}
	return &file, nil
}

func (r *noteRepository) DeleteAttachment(ctx context.Context, orgID, attachmentID string) error {
	res := r.db.WithContext(ctx).Model(&models.TabFile{}).
		Where("id = ? AND organization_id = ? AND active = ?", attachmentID, orgID, true).
		Update("active", false)
	return affected(res, "attachment")
}
