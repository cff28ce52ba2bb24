package ws

import (
	"context"

	"chat-realtime/internal/observability"
)

const (
	lifecycleRoutingKey = "ws_events.connections"

	eventConnect    = "ws_connect"
	eventDisconnect = "ws_disconnect"
	eventError      = "ws_error"
)

// publishLifecycle counts a socket lifecycle event and sends it to the broker.
// Publish failures are logged by the publisher.
func (h *Handler) publishLifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	observability.IncWSEvent(event)
	if h.publisher == nil {
		return
	}
	envelope := observability.NewEnvelope("ws_events", event, info.payload(event, reason))
	_ = h.publisher.Publish(ctx, lifecycleRoutingKey, envelope, observability.BuildHeaders(info.RequestID, info.TraceID))
}
