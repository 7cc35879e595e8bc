package handler

import (
	"net/http"
	"strconv"

	"leadchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PropertyHandler handles catalog HTTP requests
type PropertyHandler struct {
	properties *service.PropertyService
	logger     logrus.FieldLogger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *service.PropertyService, logger logrus.FieldLogger) *PropertyHandler {
	return &PropertyHandler{properties: properties, logger: logger}
}

// Get handles GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	property, err := h.properties.GetProperty(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// RefreshEmbeddings handles POST /api/v1/properties/embeddings/refresh
func (h *PropertyHandler) RefreshEmbeddings(c *gin.Context) {
	if !h.properties.CanRefreshEmbeddings() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Embeddings require PostgreSQL and an OpenAI API key"})
		return
	}

	resp, err := h.properties.RefreshEmbeddings(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if len(resp.Errors) > 0 {
		c.JSON(http.StatusPartialContent, resp)
	} else {
		c.JSON(http.StatusOK, resp)
	}
}
