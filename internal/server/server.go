package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"reclaim-chat/config"
	"reclaim-chat/internal/handler"
	"reclaim-chat/internal/middleware"
	"reclaim-chat/internal/redis"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
	"reclaim-chat/internal/websocket"
	"reclaim-chat/pkg/logger"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "production"
	TestMode    = "test"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Chat       *handler.ChatHandler
	Group      *handler.GroupHandler
	Private    *handler.PrivateHandler
	Moderation *handler.ModerationHandler
	Profile    *handler.ProfileHandler
	Journal    *handler.JournalHandler
	Upload     *handler.UploadHandler
	WS         *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.Server.Environment {
	case ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter, healthCheck func(context.Context) error) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := healthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authRL := middleware.AuthRateLimitMiddleware(limiter)
	msgRL := middleware.MessageRateLimitMiddleware(limiter)
	requireAuth := middleware.AuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", authRL, handlers.Auth.Register)
		auth.POST("/login", authRL, handlers.Auth.Login)
		auth.POST("/guest", authRL, handlers.Auth.Guest)
	}

	s.engine.GET("/v1/ws", handlers.WS.Connect)

	v1 := s.engine.Group("/v1", requireAuth)

	chat := v1.Group("/chat")
	{
		chat.GET("/messages", handlers.Chat.List)
		chat.POST("/messages", msgRL, handlers.Chat.Send)
		chat.PUT("/messages/:id", handlers.Chat.Edit)
		chat.DELETE("/messages/:id", handlers.Chat.Delete)
		chat.POST("/messages/:id/reactions", handlers.Chat.React)
		chat.POST("/pin", handlers.Chat.Pin)
	}

	groups := v1.Group("/groups")
	{
		groups.POST("", handlers.Group.Create)
		groups.GET("", handlers.Group.ListGroups)
		groups.GET("/:groupId", handlers.Group.Get)
		groups.GET("/:groupId/messages", handlers.Group.List)
		groups.POST("/:groupId/messages", msgRL, handlers.Group.Send)
		groups.PUT("/:groupId/messages/:id", handlers.Group.Edit)
		groups.DELETE("/:groupId/messages/:id", handlers.Group.Delete)
		groups.POST("/:groupId/messages/:id/reactions", handlers.Group.React)
	}

	private := v1.Group("/private")
	{
		private.GET("/conversations", handlers.Private.Conversations)
		private.DELETE("/conversations/:partnerId", handlers.Private.DeleteConversation)
		private.GET("/unread", handlers.Private.Unread)
		private.GET("/threads/:partnerId/messages", handlers.Private.List)
		private.POST("/threads/:partnerId/messages", msgRL, handlers.Private.Send)
		private.PUT("/threads/:partnerId/messages/:id", handlers.Private.Edit)
		private.DELETE("/threads/:partnerId/messages/:id", handlers.Private.Delete)
		private.POST("/threads/:partnerId/messages/:id/reactions", handlers.Private.React)
	}

	mod := v1.Group("/moderation")
	{
		mod.POST("/mute", handlers.Moderation.ToggleMute)
		mod.POST("/ban", handlers.Moderation.ToggleBan)
		mod.POST("/admin", handlers.Moderation.ToggleAdmin)
	}

	profile := v1.Group("/profile")
	{
		profile.GET("/me", handlers.Profile.Me)
		profile.PUT("/me", handlers.Profile.Update)
		profile.POST("/block", handlers.Profile.Block)
		profile.POST("/unblock", handlers.Profile.Unblock)
		profile.POST("/clean-date/reset", handlers.Profile.ResetCleanDate)
	}

	journal := v1.Group("/journal")
	{
		journal.POST("/entries", handlers.Journal.Create)
		journal.GET("/entries", handlers.Journal.List)
		journal.PUT("/entries/:entryId", handlers.Journal.Update)
		journal.DELETE("/entries/:entryId", handlers.Journal.Delete)
	}

	v1.POST("/uploads/images", handlers.Upload.ImageSlot)
}

func (s *Server) Start() error {
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Error in starting the server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	s.logger.Infof("Server is running on :%s", s.config.Server.Port)

	<-quit

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
