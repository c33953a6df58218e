package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"PracticeManager/apperrors"
	"PracticeManager/middlewares"
	"PracticeManager/services"
	"PracticeManager/storage"
)

// attachmentField is the multipart field carrying note attachments.
const attachmentField = "files"

type NoteHandler struct {
	service services.NoteService
}

func NewNoteHandler(service services.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

// noteForm is a note submitted either as JSON or as multipart form data
// with attachments under "files".
type noteForm struct {
	values  map[string]string
	present map[string]bool
	uploads []storage.Upload
	close   func()
}

func (f *noteForm) get(key string) (string, bool) {
	return f.values[key], f.present[key]
}

func readNoteForm(c *gin.Context) (*noteForm, error) {
	form := &noteForm{values: map[string]string{}, present: map[string]bool{}, close: func() {}}
	fields := []string{"patient_id", "title", "notes", "time_stamp"}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var body map[string]*string
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, apperrors.BadRequest("invalid request body")
		}
		for _, k := range fields {
			if v, ok := body[k]; ok && v != nil {
				form.values[k], form.present[k] = *v, true
			}
		}
		return form, nil
	}

	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, apperrors.BadRequest("invalid multipart form")
	}
	mf := c.Request.MultipartForm
	for _, k := range fields {
		if v, ok := mf.Value[k]; ok && len(v) > 0 {
			form.values[k], form.present[k] = v[0], true
		}
	}
	uploads, closeAll, err := openUploads(mf.File[attachmentField])
	if err != nil {
		return nil, err
	}
	form.uploads, form.close = uploads, closeAll
	return form, nil
}

func (h *NoteHandler) GetNotes(c *gin.Context) {
	notes, err := h.service.ListNotes(c.Request.Context(), orgID(c), c.Param("file_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	form, err := readNoteForm(c)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	defer form.close()

	in := services.CreateNoteInput{}
	in.PatientID, _ = form.get("patient_id")
	in.Title, _ = form.get("title")
	in.Notes, _ = form.get("notes")
	if v, ok := form.get("time_stamp"); ok {
		ts, err := parseTime("time_stamp", v)
		if err != nil {
			middlewares.HttpError(c, err)
			return
		}
		if !ts.IsZero() {
			in.TimeStamp = &ts
		}
	}

	note, err := h.service.CreateNote(c.Request.Context(), session, c.Param("file_id"), in, form.uploads)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	form, err := readNoteForm(c)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	defer form.close()

	in := services.UpdateNoteInput{}
	if v, ok := form.get("title"); ok {
		in.Title = &v
	}
	if v, ok := form.get("notes"); ok {
		in.Notes = &v
	}
	if v, ok := form.get("time_stamp"); ok {
		ts, err := parseTime("time_stamp", v)
		if err != nil {
			middlewares.HttpError(c, err)
			return
		}
		if !ts.IsZero() {
			in.TimeStamp = &ts
		}
	}

	note, err := h.service.UpdateNote(c.Request.Context(), orgID(c), c.Param("file_id"), c.Param("note_id"), in, form.uploads)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	if err := h.service.DeleteNote(c.Request.Context(), orgID(c), c.Param("file_id"), c.Param("note_id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}

func (h *NoteHandler) DeleteAttachment(c *gin.Context) {
	err := h.service.DeleteAttachment(c.Request.Context(), orgID(c), c.Param("file_id"), c.Param("note_id"), c.Param("attachment_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}

// GetAttachmentURL returns a short lived download link.
func (h *NoteHandler) GetAttachmentURL(c *gin.Context) {
	url, err := h.service.AttachmentURL(c.Request.Context(), orgID(c), c.Param("file_id"), c.Param("note_id"), c.Param("attachment_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int(services.AttachmentURLExpiry.Seconds())})
}

// DownloadAttachment streams the attachment for clients that cannot follow
// a signed URL.
func (h *NoteHandler) DownloadAttachment(c *gin.Context) {
	content, err := h.service.OpenAttachment(c.Request.Context(), orgID(c), c.Param("file_id"), c.Param("note_id"), c.Param("attachment_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	defer content.Body.Close()

	c.DataFromReader(http.StatusOK, content.Size, content.ContentType, content.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": content.FileName}),
	})
}
