package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/viewvista/stream-service/internal/session"
	"github.com/viewvista/stream-service/pkg/response"
)

// HTTPHandler serves the REST discovery view.
type HTTPHandler struct {
	manager *session.Manager
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(m *session.Manager) *HTTPHandler {
	return &HTTPHandler{manager: m}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/streams", h.ListPublicStreams)
	}
	r.GET("/health", h.Health)
}

// ListPublicStreams returns the currently joinable public rooms with their
// remaining time computed at request time.
func (h *HTTPHandler) ListPublicStreams(c *gin.Context) {
	response.Success(c, h.manager.ListPublic())
}

// Health is the liveness probe.
func (h *HTTPHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
