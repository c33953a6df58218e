package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/middlewares"
	"PracticeManager/services"
	"PracticeManager/utils"
)

type FileHandler struct {
	service services.FileService
}

func NewFileHandler(service services.FileService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) GetAllFiles(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), orgID(c), c.Query("search"), utils.PaginationFrom(c))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FileHandler) CreateFile(c *gin.Context) {
	var in services.CreateFileInput
	if !bindJSON(c, &in) {
		return
	}
	file, err := h.service.Create(c.Request.Context(), orgID(c), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

func (h *FileHandler) GetFileData(c *gin.Context) {
	data, err := h.service.GetFileData(c.Request.Context(), orgID(c), c.Param("file_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *FileHandler) SaveFileData(c *gin.Context) {
	var in services.SaveFileDataInput
	if !bindJSON(c, &in) {
		return
	}
	data, err := h.service.SaveFileData(c.Request.Context(), orgID(c), c.Param("file_id"), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), orgID(c), c.Param("file_id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}
