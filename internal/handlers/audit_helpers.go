package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-realtime/internal/log"
	"chat-realtime/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(log.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(log.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int {
	if userID := c.GetInt("userID"); userID != 0 {
		return &userID
	}
	return nil
}

func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, text string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
