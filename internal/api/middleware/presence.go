package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/drawmatch/internal/logger"
)

// SessionIDHeader identifies a browser session for presence tracking.
const SessionIDHeader = "X-Session-ID"

// Toucher records caller activity.
type Toucher interface {
	Touch(sessionID string)
}

// Presence marks the caller as active on every request. The session is taken
// from the X-Session-ID header, then the sessionId query parameter, then the
// client IP.
func Presence(tracker Toucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionIDHeader))
		if sessionID == "" {
			sessionID = strings.TrimSpace(c.Query("sessionId"))
		}
		if sessionID == "" {
			sessionID = c.ClientIP()
		}
		tracker.Touch(sessionID)
		c.Request = c.Request.WithContext(logger.SetSessionID(c.Request.Context(), sessionID))
		c.Next()
	}
}
