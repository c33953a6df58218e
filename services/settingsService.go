package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/cache"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/storage"
	"PracticeManager/utils"
)

const (
	SettingsCacheExpiry = time.Hour
	DocumentURLExpiry   = 15 * time.Minute
)

// SettingsInput updates the organization. Nil fields are left alone.
type SettingsInput struct {
	Name           *string `json:"name"`
	PracticeName   *string `json:"practice_name"`
	PracticeNumber *string `json:"practice_number"`
	FilePrefix     *string `json:"file_prefix"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Address        *string `json:"address"`
}

type SettingsService interface {
	Get(ctx context.Context, orgID string) (*models.Organization, error)
	Update(ctx context.Context, orgID string, in SettingsInput) (*models.Organization, error)
	UploadLogo(ctx context.Context, orgID string, upload storage.Upload) (*models.Organization, error)
	UploadConsent(ctx context.Context, orgID string, upload storage.Upload) (*models.Organization, error)
	LogoURL(ctx context.Context, orgID string) (string, error)
	ConsentURL(ctx context.Context, orgID string) (string, error)
}

type settingsService struct {
	store   repositories.Store
	cache   *cache.Cache
	objects storage.Store
	log     zerolog.Logger
}

func NewSettingsService(store repositories.Store, c *cache.Cache, objects storage.Store, log zerolog.Logger) SettingsService {
	return &settingsService{store: store, cache: c, objects: objects, log: log}
}

func settingsKey(orgID string) string { return "organization_cache:" + orgID }

// Get reads the organization through the Redis cache. Cache errors fall
// back to the database.
func (s *settingsService) Get(ctx context.Context, orgID string) (*models.Organization, error) {
	var org models.Organization
	found, err := s.cache.GetJSON(ctx, settingsKey(orgID), &org)
	if err != nil {
		s.log.Warn().Err(err).Str("org_id", orgID).Msg("Failed to read settings cache")
	}
	if found {
		return &org, nil
	}

	fresh, err := s.store.Organizations().GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, settingsKey(orgID), fresh, SettingsCacheExpiry); err != nil {
		s.log.Warn().Err(err).Str("org_id", orgID).Msg("Failed to cache settings")
	}
	return fresh, nil
}

func (s *settingsService) invalidate(ctx context.Context, orgID string) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), settingsKey(orgID)); err != nil {
		s.log.Warn().Err(err).Str("org_id", orgID).Msg("Failed to invalidate settings cache")
	}
}

func (s *settingsService) Update(ctx context.Context, orgID string, in SettingsInput) (*models.Organization, error) {
	org, err := s.store.Organizations().GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	set := func(column string, value *string, dst *string) {
		if value == nil {
			return
		}
		*dst = strings.TrimSpace(*value)
		fields[column] = *dst
	}
	set("name", in.Name, &org.Name)
	set("practice_name", in.PracticeName, &org.PracticeName)
	set("practice_number", in.PracticeNumber, &org.PracticeNumber)
	set("phone", in.Phone, &org.Phone)
	set("address", in.Address, &org.Address)
	if in.Email != nil {
		org.Email = utils.NormalizeEmail(*in.Email)
		fields["email"] = org.Email
	}
	if in.FilePrefix != nil {
		org.FilePrefix = strings.ToUpper(strings.TrimSpace(*in.FilePrefix))
		fields["file_prefix"] = org.FilePrefix
	}
	if err := utils.ValidateOrganization(*org); err != nil {
		return nil, validationError(err)
	}

	if err := s.store.Organizations().Update(ctx, orgID, fields); err != nil {
		return nil, err
	}
	s.invalidate(ctx, orgID)
	return s.Get(ctx, orgID)
}

func (s *settingsService) UploadLogo(ctx context.Context, orgID string, upload storage.Upload) (*models.Organization, error) {
	return s.replaceDocument(ctx, orgID, upload, storage.LogoRules, storage.CategoryLogo, "logo_path")
}

func (s *settingsService) UploadConsent(ctx context.Context, orgID string, upload storage.Upload) (*models.Organization, error) {
	return s.replaceDocument(ctx, orgID, upload, storage.ConsentRules, storage.CategoryConsent, "consent_path")
}

// replaceDocument stores a new logo or consent form, points the
// organization at it and removes the previous object.
func (s *settingsService) replaceDocument(ctx context.Context, orgID string, upload storage.Upload, rules storage.Rules, category, column string) (*models.Organization, error) {
	if err := rules.Check(upload); err != nil {
		return nil, uploadError(upload.FileName, err)
	}
	org, err := s.store.Organizations().GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	previous := org.LogoPath
	if category == storage.CategoryConsent {
		previous = org.ConsentPath
	}

	key := storage.ObjectPath(orgID, category, upload.FileName)
	if err := s.objects.Put(ctx, key, upload.Content, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}
	if err := s.store.Organizations().Update(ctx, orgID, map[string]interface{}{column: key}); err != nil {
		if key != previous {
			s.deleteObject(ctx, key)
		}
		return nil, err
	}
	if previous != "" && previous != key {
		s.deleteObject(ctx, previous)
	}
	s.invalidate(ctx, orgID)
	return s.Get(ctx, orgID)
}

func (s *settingsService) deleteObject(ctx context.Context, key string) {
	if err := s.objects.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrNoObject) {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove object")
	}
}

func (s *settingsService) LogoURL(ctx context.Context, orgID string) (string, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return "", err
	}
	return s.documentURL(ctx, org.LogoPath, "logo")
}

func (s *settingsService) ConsentURL(ctx context.Context, orgID string) (string, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return "", err
	}
	return s.documentURL(ctx, org.ConsentPath, "consent form")
}

func (s *settingsService) documentURL(ctx context.Context, key, what string) (string, error) {
	if key == "" {
		return "", apperrors.NotFound(what + " not uploaded")
	}
	url, err := s.objects.SignedURL(ctx, key, DocumentURLExpiry)
	if errors.Is(err, storage.ErrNoObject) {
		return "", apperrors.NotFound(what + " not found")
	}
	return url, err
}
