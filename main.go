package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"

	"edumarket/internal/config"
	"edumarket/internal/database"
	"edumarket/internal/geo"
	"edumarket/internal/handlers"
	"edumarket/internal/middleware"
	"edumarket/internal/repositories"
	"edumarket/internal/services"
	"edumarket/internal/studyai"
	"edumarket/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	v := viper.New()
	config.SetDefaults(v)
	cfg := config.Load(v)

	// --- Initialize RabbitMQ Client ---
	// Events are optional: without a broker the marketplace still runs.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, marketplace events disabled: %v", err)
		} else {
			defer mqClient.Close()
			publisher = mqClient

			go func() {
				log.Println("Starting RabbitMQ consumer for marketplace events...")
				if consumerErr := mqClient.ConsumeEvents(rabbitmq.LogEvent); consumerErr != nil {
					log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
				}
			}()
		}
	}

	app, _, err := NewApp(cfg, publisher)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// NewApp opens storage and wires repositories, services and handlers into a
// Fiber app. publisher may be nil.
func NewApp(cfg config.Config, publisher services.EventPublisher) (*fiber.App, *services.AuthService, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	institutions, err := geo.LoadInstitutions()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load institutions: %w", err)
	}

	// --- Initialize Repositories ---
	kv := repositories.NewGORMKVStore(db)
	accountRepo := repositories.NewKVAccountRepository(kv)
	sessionRepo := repositories.NewKVSessionRepository(kv)
	listingRepo := repositories.NewKVListingRepository(kv)

	// --- Initialize Services ---
	authService := services.NewAuthService(accountRepo, sessionRepo, publisher, cfg.JWTSecret, cfg.TokenTTL)
	listingService := services.NewListingService(listingRepo, publisher)
	purchaseService := services.NewPurchaseService(listingRepo, publisher, cfg.UPIPayeeName)
	aiService := studyai.NewService(studyai.Config{
		APIKey:           cfg.AIAPIKey,
		BaseURL:          cfg.AIBaseURL,
		Model:            cfg.AIModel,
		StructuredOutput: cfg.AIStructuredOutput,
	})

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(listingService, purchaseService)
	institutionHandler := handlers.NewInstitutionHandler(geo.NewResolver(institutions), cfg.NearbyRadiusKm)
	aiHandler := handlers.NewStudyAIHandler(aiService)

	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	listingHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService), middleware.IdentifyUser(authService))
	institutionHandler.RegisterRoutes(apiV1)
	aiHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": publisher != nil,
		})
	})

	return app, authService, nil
}
