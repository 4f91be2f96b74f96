package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/telemed-assistant/docs"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/handler"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/repository"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/repository/memory"
	"github.com/johnquangdev/telemed-assistant/internal/domain/repositories"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/external/livekit"
	httpmw "github.com/johnquangdev/telemed-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/metrics"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/storage"
	"github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
	"github.com/johnquangdev/telemed-assistant/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/telemed-assistant/pkg/validator"
)

// @title           SmartMed Telemedicine API
// @version         1.0
// @description     Video call request lifecycle between patients and doctors: submit, poll, accept or decline, and open a shared room

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /api/telemed

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	// Request store
	var repo repositories.CallRequestRepository
	switch cfg.Telemed.StoreDriver {
	case "postgres":
		log.Println("📦 Connecting to database...")
		connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.NewPostgresDB(connectCtx, cfg, logger)
		cancelConnect()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db, logger)

		// Production deployments should run cmd/migrate from CI/CD instead.
		if cfg.Database.AutoMigrate {
			if cfg.Server.Environment == "production" {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run cmd/migrate.")
			}
			log.Println("🔄 Applying sql-migrate migrations (development only) ...")
			if _, err := database.Migrate(db, database.MigrationsDir, database.DialectPostgres, logger); err != nil {
				log.Fatalf("Failed to apply migrations: %v", err)
			}
		}
		repo = repository.NewCallRequestRepository(db, nil)
	default:
		log.Println("⚠️  Using in-memory request store (requests are lost on restart)")
		repo = memory.NewCallRequestStore(nil)
	}

	// Event broker
	var broker events.Broker
	switch cfg.Telemed.BrokerDriver {
	case "redis":
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		broker = events.NewRedisBroker(redisClient, cfg.Telemed.EventsChannel, logger)
	default:
		broker = events.NewMemoryBroker(logger)
	}
	defer broker.Close()

	// Session provisioning
	var sessions videocall.SessionProvisioner
	if cfg.LiveKit.Enabled {
		log.Println("🎥 Initializing LiveKit client...")
		livekitClient := livekit.NewClient(
			cfg.LiveKit.URL,
			cfg.LiveKit.APIKey,
			cfg.LiveKit.APISecret,
			cfg.LiveKit.UseMock,
		)
		if cfg.LiveKit.UseMock {
			log.Println("⚠️  LiveKit running in MOCK mode (no real server needed)")
		} else {
			log.Printf("✅ LiveKit connected to: %s", cfg.LiveKit.URL)
		}
		sessions = videocall.NewLiveKitSessions(livekitClient, cfg.LiveKit.TokenTTL)
	}

	// Archive of purged requests
	var archiver videocall.Archiver
	if cfg.Telemed.ArchiveOnCleanup {
		log.Println("🗄️  Initializing archive storage...")
		minioClient, err := storage.NewMinIOClient(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize archive storage: %v", err)
		}
		archiver = minioClient
	}

	// Initialize video call service
	log.Println("🏠 Initializing video call service...")
	videoCallService := videocall.NewVideoCallService(repo, broker, sessions, archiver, recorder, logger, videocall.ServiceConfig{
		RoomPrefix:            cfg.Telemed.RoomPrefix,
		FilterPendingByCallee: cfg.Telemed.FilterPendingByCallee,
	})

	// Cleanup sweeper
	sweeper := videocall.NewSweeper(videoCallService, cfg.Telemed.CleanupSchedule, cfg.Telemed.CleanupMaxAge, logger)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start cleanup sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Handlers
	videoCallHandler := handler.NewVideoCallHandler(videoCallService, logger)
	eventsHandler := handler.NewEventsHandler(videoCallService, cfg.Server.AllowedOrigins, recorder, logger)

	var tokens httpmw.TokenValidator
	if cfg.Auth.Enabled {
		log.Println("🔑 Bearer token verification enabled")
		tokens = jwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.Issuer)
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, videoCallHandler, eventsHandler, recorder, tokens, logger)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return
	}

	log.Println("✅ Server stopped gracefully")
}
