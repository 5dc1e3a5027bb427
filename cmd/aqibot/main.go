package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/airaware/aqibot/internal/api/http"
	"github.com/airaware/aqibot/internal/airquality/providers"
	"github.com/airaware/aqibot/internal/bot"
	"github.com/airaware/aqibot/internal/config"
	"github.com/airaware/aqibot/internal/geocode"
	"github.com/airaware/aqibot/internal/message"
	"github.com/airaware/aqibot/internal/publisher"
	"github.com/airaware/aqibot/internal/scheduler"
	"github.com/airaware/aqibot/internal/store"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Resolve coordinates for cities declared without them.
	resolver := geocode.New(cfg.GeocoderAPIKey)
	locations := resolver.Resolve(cfg.Locations)
	if len(locations) == 0 {
		log.Fatalf("no usable cities after geocoding")
	}

	// In-memory post history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Air-quality source and care-message generator.
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	generator := message.NewGeminiGenerator(httpClient, cfg.GeminiAPIKey).WithModel(cfg.GeminiModel)

	// One publisher per city; dry run swaps in the logging publisher.
	publishers := make(map[string]publisher.Publisher, len(locations))
	for _, loc := range locations {
		if cfg.DryRun {
			publishers[loc.Key()] = &publisher.DryRunPublisher{Account: loc.Name}
			continue
		}
		publishers[loc.Key()] = publisher.NewTwitterPublisher(httpClient, cfg.Twitter[loc.Key()])
	}

	// Core service orchestrating the per-city pipeline.
	service := bot.NewService(memStore, provider, generator, publishers, locations, cfg.DryRun)

	// Scheduler that runs the posting job daily.
	sched := scheduler.New(cfg.Schedule, service, cfg.HTTPTimeout*time.Duration(len(locations)+1))
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "aqibot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "aqibot",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	// Start server with graceful shutdown
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
