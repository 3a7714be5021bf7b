package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/middleware"
	"rafiq/internal/services"
)

// AppointmentHandler books and manages office visits.
type AppointmentHandler struct {
	appointments *services.AppointmentService
	logger       *logrus.Logger
}

// NewAppointmentHandler creates the appointment handler.
func NewAppointmentHandler(appointments *services.AppointmentService, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
		logger:       logger,
	}
}

// Create books a slot for the caller.
func (h *AppointmentHandler) Create(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req services.AppointmentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	appointment, err := h.appointments.CreateAppointment(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create appointment", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// List returns the caller's appointments.
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	upcomingOnly := c.Query("upcoming") == "true"
	appointments, err := h.appointments.ListForUser(c.Request.Context(), userID, upcomingOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list appointments", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "total": len(appointments)})
}

func (h *AppointmentHandler) appointmentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid appointment ID",
			Message: "ID must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// Confirm marks an appointment as confirmed.
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	if err := h.appointments.ConfirmAppointment(c.Request.Context(), userID, id); err != nil {
		if err == services.ErrAppointmentNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Appointment not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to confirm appointment", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "appointment confirmed"})
}

// Cancel cancels an appointment.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	if err := h.appointments.CancelAppointment(c.Request.Context(), userID, id); err != nil {
		if err == services.ErrAppointmentNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Appointment not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to cancel appointment", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "appointment cancelled"})
}

// Complete marks a confirmed appointment as completed. Admin only.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := h.appointmentID(c)
	if !ok {
		return
	}

	if err := h.appointments.CompleteAppointment(c.Request.Context(), id); err != nil {
		if err == services.ErrAppointmentNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Appointment not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to complete appointment", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "appointment completed"})
}
