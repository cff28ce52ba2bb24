// Package ws terminates client websockets. It authenticates the handshake,
// registers each socket with the presence tracker and routes inbound events.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/auth"
	"chat-realtime/internal/config"
	"chat-realtime/internal/events"
	"chat-realtime/internal/log"
	"chat-realtime/internal/observability"
	"chat-realtime/internal/presence"
	"chat-realtime/internal/rabbitmq"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (int, error)
}

// Handler serves GET /ws.
type Handler struct {
	verifier  TokenVerifier
	users     auth.UserLookup
	tracker   *presence.Tracker
	notifier  events.Notifier
	publisher rabbitmq.Publisher
	cfg       config.WebSocketConfig
	inbound   map[events.Kind]inboundFunc
}

func NewHandler(
	verifier TokenVerifier,
	users auth.UserLookup,
	tracker *presence.Tracker,
	notifier events.Notifier,
	publisher rabbitmq.Publisher,
	cfg config.WebSocketConfig,
) *Handler {
	h := &Handler{
		verifier:  verifier,
		users:     users,
		tracker:   tracker,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
	}
	h.inbound = h.routes()
	return h
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates and upgrades the connection. Authentication failures
// are answered with a plain HTTP error; the socket is never opened.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-realtime/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	l := log.Ctx(ctx)

	userID, err := h.authenticate(ctx, c.Request)
	if err != nil {
		if !errors.Is(err, apperr.ErrUnauthenticated) {
			l.Error().Err(err).Msg("ws handshake: token verification failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		status := apperr.HTTPStatus(err)
		if status == http.StatusNotFound {
			status = http.StatusUnauthorized
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "unknown user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Int(log.FieldUserID, userID).Msg("ws upgrade failed")
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   c.GetString(log.RequestIDKey),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	// The request context ends when this handler returns; the socket outlives it.
	connLog := l.With().Str(log.FieldEndpointID, info.ConnID).Int(log.FieldUserID, userID).Logger()
	connCtx := log.WithLogger(context.WithoutCancel(ctx), connLog)

	client := newClient(conn, info, user.Summary(), h.cfg)
	h.tracker.Connect(connCtx, userID, client)
	observability.IncWSActive()
	h.publishLifecycle(connCtx, info, eventConnect, "")
	connLog.Debug().Msg("ws connected")

	go client.writePump()
	go h.serve(connCtx, client)
}

func (h *Handler) authenticate(ctx context.Context, r *http.Request) (int, error) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return 0, err
	}
	return h.verifier.Verify(ctx, token)
}

// serve reads until the socket fails, then releases the endpoint. Cleanup is
// immediate; a reconnect registers a fresh endpoint.
func (h *Handler) serve(ctx context.Context, client *Client) {
	err := client.readPump(func(raw []byte) {
		h.dispatch(ctx, client, raw)
	})
	client.Close()

	h.tracker.Disconnect(ctx, client.info.UserID, client)
	observability.DecWSActive()

	var reason string
	if err != nil {
		reason = err.Error()
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			h.publishLifecycle(ctx, client.info, eventError, reason)
		}
	}
	h.publishLifecycle(ctx, client.info, eventDisconnect, reason)

	l := log.Ctx(ctx)
	l.Debug().Str("reason", reason).Msg("ws disconnected")
}
