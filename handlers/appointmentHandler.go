package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"PracticeManager/middlewares"
	"PracticeManager/repositories"
	"PracticeManager/services"
)

type AppointmentHandler struct {
	service services.AppointmentService
}

func NewAppointmentHandler(service services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// GetAllAppointments lists the calendar, optionally limited by ?from=,
// ?to=, ?user_id= and ?patient_id=.
func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	from, err := parseTime("from", c.Query("from"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	to, err := parseTime("to", c.Query("to"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	filter := repositories.AppointmentFilter{
		From:      from,
		To:        to,
		UserID:    c.Query("user_id"),
		PatientID: c.Query("patient_id"),
	}
	appointments, err := h.service.List(c.Request.Context(), orgID(c), filter)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.service.Get(c.Request.Context(), orgID(c), c.Param("appointment_id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var in services.AppointmentInput
	if !bindJSON(c, &in) {
		return
	}
	appointment, err := h.service.Create(c.Request.Context(), orgID(c), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var in services.AppointmentInput
	if !bindJSON(c, &in) {
		return
	}
	appointment, err := h.service.Update(c.Request.Context(), orgID(c), c.Param("appointment_id"), in)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), orgID(c), c.Param("appointment_id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	noContent(c)
}
