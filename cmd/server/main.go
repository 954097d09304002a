package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"event-ticketing-backend/internal/config"
	"event-ticketing-backend/internal/handlers"
	"event-ticketing-backend/internal/ledger"
	"event-ticketing-backend/internal/middleware"
	"event-ticketing-backend/internal/repositories"
	"event-ticketing-backend/internal/services"
	"event-ticketing-backend/internal/signing"
	"event-ticketing-backend/pkg/database"
	"event-ticketing-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Load configuration
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	// Initialize database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// Run migrations
	if err := repositories.AutoMigrate(db); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	// Initialize repositories
	repo := repositories.NewRepository(db)

	// Payload codec and audit ledger
	codec := signing.NewCodec(cfg.PayloadSecret, cfg.PayloadLeeway)
	auditLedger := ledger.New(repo.ValidationRepo, cfg.LedgerQueueLen)

	// Initialize services
	authSvc := services.NewAuthService(repo, cfg)
	eventSvc := services.NewEventService(repo, cfg)
	issuanceSvc := services.NewIssuanceService(
		repo.EventRepo,
		repo.ParticipantRepo,
		repo.TicketRepo,
		codec,
		cfg,
	)
	admissionSvc := services.NewAdmissionService(
		repo.TicketRepo,
		repo.ValidationRepo,
		auditLedger,
		codec,
	)

	// Initialize handlers
	resolve := middleware.ResolveCredential(repo.EventRepo, cfg)
	handler := handlers.NewHandler(authSvc, eventSvc, issuanceSvc, admissionSvc, resolve, cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Event Ticketing API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-BoxOffice-Token,X-Gate-Token",
	}))

	// Register routes
	handler.RegisterOperational(app)
	api := app.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("🚀 Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	// Flush any queued audit records before exit
	auditLedger.Close()
	log.Println("Server stopped gracefully")
}
