package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-realtime/internal/auth"
	"chat-realtime/internal/config"
	"chat-realtime/internal/db"
	"chat-realtime/internal/events"
	"chat-realtime/internal/handlers"
	"chat-realtime/internal/log"
	"chat-realtime/internal/membership"
	"chat-realtime/internal/middleware"
	"chat-realtime/internal/observability"
	"chat-realtime/internal/pipeline"
	"chat-realtime/internal/presence"
	"chat-realtime/internal/rabbitmq"
	"chat-realtime/internal/registry"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/storage"
	"chat-realtime/internal/telemetry"
	"chat-realtime/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log.Init(cfg.Log)
	l := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Tracing.Endpoint, cfg.Server.ServiceName)
		if err != nil {
			l.Warn().Err(err).Msg("tracing disabled")
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	database, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	var store storage.Store = storage.Disabled{Reason: "no bucket configured"}
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			l.Warn().Err(err).Msg("object storage disabled")
		} else {
			store = s3Store
		}
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	l.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, cfg.AMQP.AuditRoutingKey, cfg.Server.ServiceName, cfg.Server.Environment)

	reg := registry.New()
	router := events.NewRouter(reg)

	var trackerOpts []presence.Option
	var shared handlers.SharedPresence
	if cfg.Redis.Address != "" {
		mirror, err := presence.NewRedisMirror(cfg.Redis)
		if err != nil {
			l.Warn().Err(err).Msg("presence mirror disabled")
		} else {
			defer mirror.Close()
			trackerOpts = append(trackerOpts, presence.WithMirror(mirror))
			shared = mirror
		}
	}
	tracker := presence.NewTracker(reg, chatRepo, router, trackerOpts...)

	chatService := membership.NewService(chatRepo, messageRepo, userRepo, store, router)
	messageService := pipeline.NewService(chatRepo, messageRepo, userRepo, store, router)

	if cfg.Auth.JWTSecret == "" {
		l.Fatal().Msg("auth.jwt_secret is required")
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, userRepo)

	chatHandler := handlers.NewChatHandler(chatService, audit)
	groupHandler := handlers.NewGroupHandler(chatService, audit)
	messageHandler := handlers.NewMessageHandler(messageService)
	userHandler := handlers.NewUserHandler(chatService)
	wsHandler := ws.NewHandler(verifier, userRepo, tracker, router, publisher, cfg.WebSocket)

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Server.ServiceName),
		log.GinMiddleware(l),
		observability.HTTPMetricsMiddleware(),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", observability.MetricsHandler())
	engine.GET("/ws", wsHandler.Handle)

	api := engine.Group("/", middleware.AuthMiddleware(verifier))

	api.GET("/users/me", userHandler.Me)
	api.GET("/users/search", userHandler.Search)
	api.GET("/users/non-contacts", userHandler.SearchNonContacts)

	api.POST("/chats/private", chatHandler.CreatePrivate)
	api.GET("/chats", chatHandler.ListChats)
	api.GET("/chats/:chat_id", chatHandler.GetChat)
	api.PUT("/chats/:chat_id", chatHandler.Rename)
	api.DELETE("/chats/:chat_id", chatHandler.DeleteChat)
	api.GET("/chats/:chat_id/members", chatHandler.ListMembers)
	api.GET("/chats/:chat_id/members/search", userHandler.SearchMembers)
	api.GET("/chats/:chat_id/non-members", userHandler.SearchNonMembers)
	api.PUT("/chats/:chat_id/members", chatHandler.AddMembers)
	api.DELETE("/chats/:chat_id/members/:user_id", chatHandler.RemoveMember)
	api.DELETE("/chats/:chat_id/leave", chatHandler.LeaveGroup)

	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups", groupHandler.ListGroups)

	api.POST("/chats/:chat_id/messages", messageHandler.SendMessage)
	api.GET("/chats/:chat_id/messages", messageHandler.ListMessages)
	api.GET("/chats/:chat_id/messages/search", messageHandler.SearchMessages)
	api.POST("/chats/:chat_id/attachments", messageHandler.SendAttachments)
	api.PUT("/messages/:message_id", messageHandler.UpdateMessage)
	api.DELETE("/messages/:message_id", messageHandler.DeleteMessage)

	handlers.RegisterDebugRoutes(api, audit, tracker, reg, shared, cfg.Debug.Enabled)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info().Int("port", cfg.Server.Port).Msg("chat server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("graceful shutdown failed")
	}
}
