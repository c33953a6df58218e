package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/middlewares"
	"PracticeManager/models"
	"PracticeManager/services"
	"PracticeManager/utils"
)

type PatientHandler struct {
	service services.PatientService
}

func NewPatientHandler(service services.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), orgID(c), c.Query("search"), utils.PaginationFrom(c))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.service.Get(c.Request.Context(), orgID(c), c.Param("patient_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var in services.PatientInput
	if !bindJSON(c, &in) {
		return
	}
	patient, err := h.service.Create(c.Request.Context(), orgID(c), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var in services.PatientInput
	if !bindJSON(c, &in) {
		return
	}
	patient, err := h.service.Update(c.Request.Context(), orgID(c), c.Param("patient_id"), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), orgID(c), c.Param("patient_id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}

func (h *PatientHandler) GetPatientFiles(c *gin.Context) {
	files, err := h.service.ListFiles(c.Request.Context(), orgID(c), c.Param("patient_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	if files == nil {
		files = []models.FileInfo{}
	}
	c.JSON(http.StatusOK, files)
}
