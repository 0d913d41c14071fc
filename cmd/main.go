package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/session"
	"catalog-service/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gopkg.in/natefinch/lumberjack.v2"
)

// @title Modular Buildings Catalog API
// @version 1.0.0
// @description Product catalog, consultation orders and storefront for a modular buildings vendor

// @host localhost:8087
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin token.

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	if cfg.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   true,
		}))
	}
	return logger
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	logger := newLogger(cfg)

	// Storage
	fileRepo := repository.NewFileRepository(cfg.DataFile)
	var repo repository.CatalogRepository = fileRepo
	var readyChecks []func(ctx context.Context) error

	if cfg.StorageDriver == config.StorageDriverPostgres {
		db, err := config.InitDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		pgRepo := repository.NewPostgresRepository(db)
		if err := pgRepo.Migrate(); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		seed, err := fileRepo.Load()
		if err != nil {
			log.Printf("WARNING: Failed to read seed file %s: %v (skipping seed)", cfg.DataFile, err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			seeded, err := pgRepo.Seed(ctx, seed)
			cancel()
			if err != nil {
				log.Fatal("Failed to seed database:", err)
			}
			if seeded {
				log.Printf("✓ Database seeded from %s", cfg.DataFile)
			}
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("Failed to access database handle:", err)
		}
		readyChecks = append(readyChecks, sqlDB.PingContext)
		repo = pgRepo
		log.Println("✓ Using PostgreSQL storage")
	} else {
		log.Printf("✓ Using file storage at %s", cfg.DataFile)
	}

	// Redis cache
	var cache handlers.CacheInvalidator
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Failed to parse Redis URL: %v (caching will be disabled)", err)
		} else {
			redisClient := redis.NewClient(redisOpts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("WARNING: Failed to connect to Redis: %v (reads fall through to storage)", err)
			} else {
				log.Println("✓ Redis connected successfully")
			}
			cancel()

			cached := repository.NewCachedRepository(repo, redisClient, logger)
			repo = cached
			cache = cached
			defer redisClient.Close()
		}
	} else {
		log.Println("REDIS_URL not set, caching disabled")
	}

	// Order events
	var publisher services.OrderEventPublisher
	if cfg.NATSURL != "" {
		eventsPublisher, err := events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
			publisher = eventsPublisher
			defer eventsPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	telegramClient := clients.NewTelegramClient(cfg.TelegramAPIURL)

	credentials := models.Settings{
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
	}
	siteDefaults := models.Settings{
		SiteName: cfg.SiteName,
		Currency: cfg.Currency,
	}
	settingsService := services.NewSiteSettingsService(repo, credentials, siteDefaults)
	orderService := services.NewOrderService(repo, settingsService, telegramClient, publisher, logger)

	gatewayHandler := handlers.NewGatewayHandler(repo, orderService, settingsService, cache, logger)
	exportHandler := handlers.NewExportHandler(orderService, logger)
	legacyHandler := handlers.NewLegacyHandler(repo, orderService, settingsService, cfg.LegacyAPIName, logger)

	// Storefront sessions consume the gateway over HTTP
	registry := session.NewRegistry(session.Config{
		Gateway:   clients.NewGatewayClient(cfg.GatewayURL, cfg.GatewayTimeout),
		Messenger: telegramClient,
		Store: store.Options{
			LocalSettings: credentials.Merge(siteDefaults),
		},
		Placeholder: cfg.PlaceholderImage,
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Logger:      logger,
	})
	if err := registry.Start(); err != nil {
		log.Fatal("Failed to start session janitor:", err)
	}
	siteHandler := handlers.NewSiteHandler(registry, cfg.SessionTTL, cfg.IsProduction(), logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(readyChecks...))

	api := router.Group("/api/v1")
	gatewayHandler.Register(api)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminToken))
	{
		gatewayHandler.RegisterAdmin(admin)
		admin.GET("/orders/export", exportHandler.ExportOrders)
	}

	legacyHandler.Register(router)
	siteHandler.Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	registry.Stop()
	log.Println("✓ Session janitor stopped")

	log.Println("Catalog service stopped")
}
