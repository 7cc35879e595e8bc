package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"leadchat/internal/model"
	"leadchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChatHandler handles conversation-related HTTP requests
type ChatHandler struct {
	conversation *service.ConversationService
	logger       logrus.FieldLogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(conversation *service.ConversationService, logger logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{
		conversation: conversation,
		logger:       logger,
	}
}

// GetSession handles GET /api/v1/sessions/:user_id
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.conversation.Session(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// ResetSession handles DELETE /api/v1/sessions/:user_id
func (h *ChatHandler) ResetSession(c *gin.Context) {
	if !h.conversation.ResetSession(c.Param("user_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Chat handles POST /api/v1/sessions/:user_id/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.conversation.Session(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.conversation.HandleTurn(c.Request.Context(), session, req.Message, nil)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChatStream handles POST /api/v1/sessions/:user_id/chat/stream - SSE streaming turn
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.conversation.Session(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if session.State() != service.StateIdle {
		writeError(c, h.logger, service.ErrTurnInProgress)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"user_id": session.UserID})
	flusher.Flush()

	result, err := h.conversation.HandleTurn(c.Request.Context(), session, req.Message, func(event string, data any) error {
		if err := sendSSE(c, event, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", result)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Properties handles GET /api/v1/sessions/:user_id/properties
func (h *ChatHandler) Properties(c *gin.Context) {
	session, err := h.conversation.Session(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	preview := c.Query("preview") == "true"
	resp, err := h.conversation.MatchingProperties(c.Request.Context(), session, preview)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) error {
	if data == nil {
		_, err := fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return err
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		_, err = fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return err
	}
	_, err = fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
	return err
}
