// Package handlers adapts HTTP requests to the practice services.
package handlers

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PracticeManager/apperrors"
	"PracticeManager/middlewares"
	"PracticeManager/services"
	"PracticeManager/storage"
)

// maxMultipartMemory is how much of a multipart body is held in memory
// before spilling to temp files.
const maxMultipartMemory = 32 << 20

// bindJSON decodes the body into dst and writes a 400 when it cannot.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middlewares.HttpError(c, apperrors.BadRequest("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// currentSession returns the caller's session or writes a 401.
func currentSession(c *gin.Context) (*services.Session, bool) {
	session, ok := middlewares.CurrentSession(c)
	if !ok {
		middlewares.HttpError(c, apperrors.Unauthorized("authentication required"))
	}
	return session, ok
}

func orgID(c *gin.Context) string {
	return c.Param("org_id")
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// parseTime reads an optional RFC 3339 query or form value.
func parseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(field + " must be an RFC 3339 timestamp")
	}
	return t, nil
}

// openUploads opens multipart files for the services. The returned func
// closes them.
func openUploads(headers []*multipart.FileHeader) ([]storage.Upload, func(), error) {
	uploads := make([]storage.Upload, 0, len(headers))
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, nil, apperrors.BadRequest("could not read upload " + h.Filename)
		}
		files = append(files, f)
		uploads = append(uploads, storage.Upload{
			FileName:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Content:     f,
		})
	}
	return uploads, closeAll, nil
}

// formFile reads a single required upload named field.
func formFile(c *gin.Context, field string) (storage.Upload, func(), error) {
	h, err := c.FormFile(field)
	if err != nil {
		return storage.Upload{}, nil, apperrors.BadRequest(field + " file is required")
	}
	uploads, closeAll, err := openUploads([]*multipart.FileHeader{h})
	if err != nil {
		return storage.Upload{}, nil, err
	}
	return uploads[0], closeAll, nil
}
