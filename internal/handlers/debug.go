package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/telemetry"
)

// PresenceView exposes the local presence set.
type PresenceView interface {
	Snapshot() []int
}

// EndpointView reports live endpoints per user on this instance.
type EndpointView interface {
	EndpointCounts() map[int]int
}

// SharedPresence lists the presence set mirrored across instances.
type SharedPresence interface {
	Members(ctx context.Context) ([]int, error)
}

// RegisterDebugRoutes wires debug-only endpoints. shared may be nil.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, presence PresenceView, endpoints EndpointView, shared SharedPresence, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/presence", func(c *gin.Context) {
		resp := gin.H{"local": presence.Snapshot(), "endpoints": endpoints.EndpointCounts()}
		if shared != nil {
			members, err := shared.Members(c.Request.Context())
			if err != nil {
				resp["shared_error"] = err.Error()
			} else {
				resp["shared"] = members
			}
		}
		c.JSON(http.StatusOK, resp)
	})
}
