package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AshCena/web-command-center/internal/domain/terminal"
	"github.com/AshCena/web-command-center/internal/infrastructure/monitoring"
	"github.com/AshCena/web-command-center/internal/shared/id"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// SessionLister exposes the live terminal sessions.
type SessionLister interface {
	Sessions() []terminal.Info
	Session(sessionID id.SessionID) (terminal.Info, bool)
	Count() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions SessionLister
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(sessions SessionLister, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		sessions: sessions,
		metrics:  metrics,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"service":   "Web Command Center",
		"version":   Version,
		"endpoints": []string{"/ws/terminal", "/ws", "/health", "/sessions", "/sessions/:id", "/metrics"},
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Count(),
		"metrics":  h.metrics.Snapshot(),
	})
}

// ListSessions lists the live terminal sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.Sessions()
	if sessions == nil {
		sessions = []terminal.Info{}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one live session
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, ok := h.sessions.Session(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}
