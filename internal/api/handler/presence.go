package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActiveCounter counts sessions seen within the presence window.
type ActiveCounter interface {
	Count() int
}

// PresenceHandler reports live player counts.
type PresenceHandler struct {
	sessions ActiveCounter
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(sessions ActiveCounter) *PresenceHandler {
	return &PresenceHandler{sessions: sessions}
}

// ActiveUsers handles GET /api/activeUsers.
func (h *PresenceHandler) ActiveUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activeUsers": h.sessions.Count()})
}
