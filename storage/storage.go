// Package storage keeps practice binaries (logos, consent documents and
// note attachments) in an object store under {orgId}/{category}/{filename}.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNoObject           = errors.New("storage: no object")
	ErrFileTooLarge       = errors.New("storage: file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("storage: content type is not allowed")
	ErrMissingFileName    = errors.New("storage: file name is required")
)

const (
	CategoryLogo    = "logo"
	CategoryConsent = "consent"
	CategoryNotes   = "notes"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

type Store interface {
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName strips directories and anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	return name
}

// ObjectPath builds the bucket key for a file of an organization.
func ObjectPath(orgID, category, filename string) string {
	return orgID + "/" + category + "/" + SanitizeFileName(filename)
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// Rules restricts what an upload may contain.
type Rules struct {
	MaxSize      int64
	ContentTypes map[string]bool
}

var (
	LogoRules = Rules{
		MaxSize:      10 << 20,
		ContentTypes: map[string]bool{"image/png": true, "image/jpeg": true, "image/svg+xml": true, "image/webp": true},
	}
	ConsentRules = Rules{
		MaxSize:      10 << 20,
		ContentTypes: map[string]bool{"application/pdf": true},
	}
	AttachmentRules = Rules{
		MaxSize: 25 << 20,
		ContentTypes: map[string]bool{
			"image/png": true, "image/jpeg": true, "application/pdf": true, "text/plain": true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		},
	}
)

// Check validates an upload against the rules.
func (r Rules) Check(u Upload) error {
	if SanitizeFileName(u.FileName) == "" {
		return ErrMissingFileName
	}
	if r.MaxSize > 0 && u.Size > r.MaxSize {
		return ErrFileTooLarge
	}
	if len(r.ContentTypes) > 0 && !r.ContentTypes[baseContentType(u.ContentType)] {
		return ErrInvalidContentType
	}
	return nil
}

func baseContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
