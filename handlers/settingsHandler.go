package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/middlewares"
	"PracticeManager/models"
	"PracticeManager/services"
	"PracticeManager/storage"
)

type SettingsHandler struct {
	service services.SettingsService
}

func NewSettingsHandler(service services.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	org, err := h.service.Get(c.Request.Context(), orgID(c))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var in services.SettingsInput
	if !bindJSON(c, &in) {
		return
	}
	org, err := h.service.Update(c.Request.Context(), orgID(c), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	h.upload(c, h.service.UploadLogo)
}

func (h *SettingsHandler) UploadConsent(c *gin.Context) {
	h.upload(c, h.service.UploadConsent)
}

func (h *SettingsHandler) upload(c *gin.Context, save func(context.Context, string, storage.Upload) (*models.Organization, error)) {
	upload, closeFile, err := formFile(c, "file")
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	defer closeFile()

	org, err := save(c.Request.Context(), orgID(c), upload)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *SettingsHandler) GetLogoURL(c *gin.Context) {
	h.url(c, h.service.LogoURL)
}

func (h *SettingsHandler) GetConsentURL(c *gin.Context) {
	h.url(c, h.service.ConsentURL)
}

func (h *SettingsHandler) url(c *gin.Context, sign func(context.Context, string) (string, error)) {
	url, err := sign(c.Request.Context(), orgID(c))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int(services.DocumentURLExpiry.Seconds())})
}
