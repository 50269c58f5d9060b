package main

import (
	"context"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"reclaim-chat/config"
	"reclaim-chat/internal/directory"
	"reclaim-chat/internal/handler"
	"reclaim-chat/internal/messages"
	"reclaim-chat/internal/moderation"
	appredis "reclaim-chat/internal/redis"
	"reclaim-chat/internal/repository"
	"reclaim-chat/internal/server"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/storage"
	"reclaim-chat/internal/store"
	"reclaim-chat/internal/websocket"
	"reclaim-chat/pkg/database"
	"reclaim-chat/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	ctx := context.Background()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		l.Errorf("Failed to connect to redis: %v", err)
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	db := store.NewRedisStore(redisClient, l)

	var s3Client *storage.Client
	if cfg.S3.Bucket != "" {
		s3Client, err = storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PublicBase: cfg.S3.PublicBase,
		})
		if err != nil {
			log.Fatalf("Failed to build S3 client: %v", err)
		}
	} else {
		l.Warnf("S3 not configured, image uploads disabled")
	}

	userRepo := repository.NewUserRepository(pool)
	journalRepo := repository.NewJournalRepository(pool)

	msgs := messages.NewStore(db, l)
	hyd := messages.NewHydrator(db)
	dir := directory.New(db, l)
	mod := moderation.NewService(db, l, cfg.Moderation.DeveloperIDs)

	authService := services.NewAuthService(userRepo, db, l, cfg)
	profileService := services.NewProfileService(db, mod)
	chatService := services.NewChatService(db, msgs, dir, mod, hyd, l)
	journalService := services.NewJournalService(journalRepo)
	uploadService := services.NewUploadService(s3Client)

	hub := websocket.NewHub()
	_ = websocket.NewBridge(hub, chatService, l)
	go hub.Run(ctx)

	limiter := appredis.NewRateLimiter(redisClient, appredis.DefaultRateLimitConfig())

	handlers := &server.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Chat:       handler.NewChatHandler(chatService, profileService),
		Group:      handler.NewGroupHandler(chatService, profileService),
		Private:    handler.NewPrivateHandler(chatService, profileService),
		Moderation: handler.NewModerationHandler(mod, profileService),
		Profile:    handler.NewProfileHandler(profileService),
		Journal:    handler.NewJournalHandler(journalService),
		Upload:     handler.NewUploadHandler(uploadService),
		WS:         websocket.NewHandler(authService, hub, websocket.NewAuthorizer(profileService, mod), l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter, func(ctx context.Context) error {
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		return pool.Ping(ctx)
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
