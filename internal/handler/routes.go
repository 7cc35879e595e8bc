package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Handlers groups the HTTP handlers mounted by SetupRoutes
type Handlers struct {
	Chat       *ChatHandler
	Leads      *LeadHandler
	Properties *PropertyHandler
}

// NewRouter creates a gin engine with recovery, request logging and CORS
func NewRouter(allowedOrigins string, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(allowedOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	return router
}

// SetupRoutes mounts health, version and the /api/v1 routes
func SetupRoutes(router *gin.Engine, h Handlers, info BuildInfo) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "leadchat",
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	})

	apiV1 := router.Group("/api/v1")
	{
		// Lead capture and appointments
		apiV1.POST("/leads", h.Leads.Create)
		apiV1.GET("/leads/:id", h.Leads.Get)
		apiV1.POST("/leads/:id/appointments", h.Leads.BookAppointment)
		apiV1.GET("/appointments/slots", h.Leads.Slots)

		// Conversation
		apiV1.GET("/sessions/:user_id", h.Chat.GetSession)
		apiV1.DELETE("/sessions/:user_id", h.Chat.ResetSession)
		apiV1.POST("/sessions/:user_id/chat", h.Chat.Chat)
		apiV1.POST("/sessions/:user_id/chat/stream", h.Chat.ChatStream)
		apiV1.GET("/sessions/:user_id/properties", h.Chat.Properties)

		// Catalog
		apiV1.GET("/properties/:id", h.Properties.Get)
		apiV1.POST("/properties/embeddings/refresh", h.Properties.RefreshEmbeddings)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})
}

// RequestLogger logs one structured line per request
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Debug("Request completed")
		}
	}
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
