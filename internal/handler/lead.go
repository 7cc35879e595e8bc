package handler

import (
	"net/http"

	"leadchat/internal/model"
	"leadchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LeadHandler handles lead capture and appointment booking
type LeadHandler struct {
	leads  *service.LeadService
	logger logrus.FieldLogger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leads *service.LeadService, logger logrus.FieldLogger) *LeadHandler {
	return &LeadHandler{leads: leads, logger: logger}
}

// Create handles POST /api/v1/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req model.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// Get handles GET /api/v1/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.leads.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Slots handles GET /api/v1/appointments/slots
func (h *LeadHandler) Slots(c *gin.Context) {
	c.JSON(http.StatusOK, h.leads.AppointmentOptions())
}

// BookAppointment handles POST /api/v1/leads/:id/appointments
func (h *LeadHandler) BookAppointment(c *gin.Context) {
	var req model.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	appt, err := h.leads.BookAppointment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}
