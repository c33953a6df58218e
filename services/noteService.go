package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/storage"
	"PracticeManager/utils"
)

const AttachmentURLExpiry = 15 * time.Minute

type CreateNoteInput struct {
	PatientID string     `json:"patient_id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	TimeStamp *time.Time `json:"time_stamp"`
}

// AttachmentContent is an opened attachment. The caller closes Body.
type AttachmentContent struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type UpdateNoteInput struct {
	Title     *string    `json:"title"`
	Notes     *string    `json:"notes"`
	TimeStamp *time.Time `json:"time_stamp"`
}

type NoteService interface {
	ListNotes(ctx context.Context, orgID, fileID string) ([]models.TabNote, error)
	CreateNote(ctx context.Context, session *Session, fileID string, in CreateNoteInput, uploads []storage.Upload) (*models.TabNote, error)
	UpdateNote(ctx context.Context, orgID, fileID, noteID string, in UpdateNoteInput, uploads []storage.Upload) (*models.TabNote, error)
	DeleteNote(ctx context.Context, orgID, fileID, noteID string) error
	DeleteAttachment(ctx context.Context, orgID, fileID, noteID, attachmentID string) error
	AttachmentURL(ctx context.Context, orgID, fileID, noteID, attachmentID string) (string, error)
	OpenAttachment(ctx context.Context, orgID, fileID, noteID, attachmentID string) (*AttachmentContent, error)
}

type noteService struct {
	store   repositories.Store
	objects storage.Store
	log     zerolog.Logger
}

func NewNoteService(store repositories.Store, objects storage.Store, log zerolog.Logger) NoteService {
	return &noteService{store: store, objects: objects, log: log}
}

func (s *noteService) ListNotes(ctx context.Context, orgID, fileID string) ([]models.TabNote, error) {
	if _, err := s.store.Files().GetByID(ctx, orgID, fileID); err != nil {
		return nil, err
	}
	notes, err := s.store.Notes().ListByFile(ctx, orgID, fileID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.TabNote{}
	}
	return notes, nil
}

// resolveLink finds the patient link a note is written against. Without a
// patient id the file must have exactly one patient.
func (s *noteService) resolveLink(ctx context.Context, orgID, fileID, patientID string) (*models.PatientFile, error) {
	if _, err := s.store.Files().GetByID(ctx, orgID, fileID); err != nil {
		return nil, err
	}
	links, err := s.store.Files().Links(ctx, orgID, fileID)
	if err != nil {
		return nil, err
	}
	if patientID == "" {
		if len(links) != 1 {
			return nil, apperrors.BadRequest("patient_id is required when a file has more than one patient")
		}
		return &links[0], nil
	}
	for i := range links {
		if links[i].PatientID == patientID {
			return &links[i], nil
		}
	}
	return nil, apperrors.BadRequest("patient is not linked to this file")
}

func (s *noteService) CreateNote(ctx context.Context, session *Session, fileID string, in CreateNoteInput, uploads []storage.Upload) (*models.TabNote, error) {
	orgID := session.OrgID
	link, err := s.resolveLink(ctx, orgID, fileID, strings.TrimSpace(in.PatientID))
	if err != nil {
		return nil, err
	}
	uploads, err = checkUploads(uploads)
	if err != nil {
		return nil, err
	}

	note := models.TabNote{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		PatientFileID:  link.ID,
		UserID:         session.UserID,
		TimeStamp:      time.Now().UTC(),
		Title:          strings.TrimSpace(in.Title),
		Notes:          in.Notes,
	}
	if in.TimeStamp != nil {
		note.TimeStamp = in.TimeStamp.UTC()
	}

	files, created, err := s.putAttachments(ctx, orgID, note.ID, uploads, nil)
	if err != nil {
		return nil, err
	}
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		if err := tx.Notes().Create(ctx, &note); err != nil {
			return err
		}
		for i := range files {
			if err := tx.Notes().AddAttachment(ctx, &files[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeObjects(ctx, created)
		return nil, err
	}
	return s.store.Notes().GetByID(ctx, orgID, fileID, note.ID)
}

func (s *noteService) UpdateNote(ctx context.Context, orgID, fileID, noteID string, in UpdateNoteInput, uploads []storage.Upload) (*models.TabNote, error) {
	note, err := s.store.Notes().GetByID(ctx, orgID, fileID, noteID)
	if err != nil {
		return nil, err
	}
	uploads, err = checkUploads(uploads)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]models.TabFile, len(note.Files))
	for _, f := range note.Files {
		existing[f.FileName] = f
	}
	files, created, err := s.putAttachments(ctx, orgID, noteID, uploads, existing)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	if in.TimeStamp != nil {
		fields["time_stamp"] = in.TimeStamp.UTC()
	}

	var replaced []string
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		replaced = replaced[:0]
		if len(fields) > 0 {
			if err := tx.Notes().Update(ctx, orgID, noteID, fields); err != nil {
				return err
			}
		}
		for i := range files {
			if old, ok := existing[files[i].FileName]; ok {
				if err := tx.Notes().DeleteAttachment(ctx, orgID, old.ID); err != nil {
					return err
				}
				replaced = append(replaced, old.StoragePath)
			}
			if err := tx.Notes().AddAttachment(ctx, &files[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeObjects(ctx, created)
		return nil, err
	}
	s.removeObjects(ctx, replaced)
	return s.store.Notes().GetByID(ctx, orgID, fileID, noteID)
}

// checkUploads validates every upload and drops earlier uploads that share
// a file name with a later one.
func checkUploads(uploads []storage.Upload) ([]storage.Upload, error) {
	for _, u := range uploads {
		if err := storage.AttachmentRules.Check(u); err != nil {
			return nil, uploadError(u.FileName, err)
		}
	}
	return utils.DedupeBy(uploads, func(u storage.Upload) string {
		return storage.SanitizeFileName(u.FileName)
	}), nil
}

// putAttachments stores uploads under the note and returns the rows to save
// plus every key written. A name already on the note gets a fresh key
// carrying the new row id so the stored object stays intact until the
// replacement commits. On failure the written keys are removed.
func (s *noteService) putAttachments(ctx context.Context, orgID, noteID string, uploads []storage.Upload, existing map[string]models.TabFile) ([]models.TabFile, []string, error) {
	files := make([]models.TabFile, 0, len(uploads))
	var created []string
	for _, u := range uploads {
		name := storage.SanitizeFileName(u.FileName)
		file := models.TabFile{
			OrganizationID: orgID,
			TabNoteID:      noteID,
			FileName:       name,
			ContentType:    u.ContentType,
			Size:           u.Size,
		}
		object := noteID + "_" + name
		if _, ok := existing[name]; ok {
			file.ID = uuid.NewString()
			object = noteID + "_" + file.ID + "_" + name
		}
		file.StoragePath = storage.ObjectPath(orgID, storage.CategoryNotes, object)
		if err := s.objects.Put(ctx, file.StoragePath, u.Content, u.Size, u.ContentType); err != nil {
			s.removeObjects(ctx, created)
			return nil, nil, err
		}
		created = append(created, file.StoragePath)
		files = append(files, file)
	}
	return files, created, nil
}

func (s *noteService) removeObjects(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNoObject) {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove uploaded object")
		}
	}
}

func (s *noteService) DeleteNote(ctx context.Context, orgID, fileID, noteID string) error {
	if _, err := s.store.Notes().GetByID(ctx, orgID, fileID, noteID); err != nil {
		return err
	}
	return s.store.Notes().Delete(ctx, orgID, noteID)
}

func (s *noteService) attachment(ctx context.Context, orgID, fileID, noteID, attachmentID string) (*models.TabFile, error) {
	if _, err := s.store.Notes().GetByID(ctx, orgID, fileID, noteID); err != nil {
		return nil, err
	}
	return s.store.Notes().GetAttachment(ctx, orgID, noteID, attachmentID)
}

// DeleteAttachment deactivates the row and removes the stored object.
func (s *noteService) DeleteAttachment(ctx context.Context, orgID, fileID, noteID, attachmentID string) error {
	file, err := s.attachment(ctx, orgID, fileID, noteID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.store.Notes().DeleteAttachment(ctx, orgID, file.ID); err != nil {
		return err
	}
	s.removeObjects(ctx, []string{file.StoragePath})
	return nil
}

func (s *noteService) AttachmentURL(ctx context.Context, orgID, fileID, noteID, attachmentID string) (string, error) {
	file, err := s.attachment(ctx, orgID, fileID, noteID, attachmentID)
	if err != nil {
		return "", err
	}
	return s.objects.SignedURL(ctx, file.StoragePath, AttachmentURLExpiry)
}

// OpenAttachment streams the stored object through the API.
func (s *noteService) OpenAttachment(ctx context.Context, orgID, fileID, noteID, attachmentID string) (*AttachmentContent, error) {
	file, err := s.attachment(ctx, orgID, fileID, noteID, attachmentID)
	if err != nil {
		return nil, err
	}
	body, info, err := s.objects.Get(ctx, file.StoragePath)
	if errors.Is(err, storage.ErrNoObject) {
		return nil, apperrors.NotFound("attachment content is missing")
	}
	if err != nil {
		return nil, err
	}
	content := &AttachmentContent{FileName: file.FileName, ContentType: file.ContentType, Size: info.Size, Body: body}
	if content.ContentType == "" {
		content.ContentType = info.ContentType
	}
	return content, nil
}

// uploadError turns a storage rule failure into a 400 naming the file.
func uploadError(name string, err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrInvalidContentType),
		errors.Is(err, storage.ErrMissingFileName):
		msg := strings.TrimPrefix(err.Error(), "storage: ")
		if name != "" {
			msg = name + ": " + msg
		}
		return apperrors.BadRequest(msg)
	}
	return err
}
