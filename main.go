package main

import (
	"log"
	"time"

	"github.com/dealhound/coupon-backend/auth"
	"github.com/dealhound/coupon-backend/config"
	"github.com/dealhound/coupon-backend/database"
	"github.com/dealhound/coupon-backend/handlers"
	"github.com/dealhound/coupon-backend/jobs"
	"github.com/dealhound/coupon-backend/providers"
	"github.com/dealhound/coupon-backend/services"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	cfg.ApplyLogLevel()

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations and verify the coupon tables
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Printf("Migration warning: %v", err)
	}
	if err := database.ValidateSchema(); err != nil {
		log.Fatalf("Schema validation failed: %v", err)
	}

	// Shared outbound plumbing: one HTTP client factory and one provider
	// rate limiter per process.
	httpFactory := shared.NewHTTPClientFactory(30 * time.Second)
	defer httpFactory.CleanupAllClients()
	providerLimiter := shared.NewRequestRateLimiter(500 * time.Millisecond)

	// The provider is a fixed process-level choice, immutable after
	// construction; unknown names fail startup.
	providerName, err := providers.ParseName(cfg.SearchProvider)
	if err != nil {
		log.Fatalf("Invalid SEARCH_PROVIDER: %v", err)
	}
	apiKey := cfg.MistralAPIKey
	if providerName == providers.Perplexity {
		apiKey = cfg.PerplexityAPIKey
	}
	searchProvider, err := providers.New(providerName, apiKey, providers.Options{
		HTTPFactory: httpFactory,
		RateLimiter: providerLimiter,
		MaxRetries:  2,
	})
	if err != nil {
		log.Fatalf("Failed to construct search provider: %v", err)
	}

	// External identity service client
	identity := auth.NewClient(cfg.AuthServiceURL, cfg.AuthServiceKey, httpFactory)

	// Initialize services
	cacheService := services.NewCouponCacheService(database.DB)
	quotaService := services.NewQuotaService(database.DB)
	usageService := services.NewUsageService(database.DB)
	normalizer := services.NewCouponNormalizer(cfg.GetCacheTTL())
	searchService := services.NewSearchService(cacheService, quotaService, usageService, normalizer, searchProvider)

	log.Println("Coupon backend services initialized:")
	log.Printf("  - Search provider: %s", providerName)
	log.Printf("  - Coupon cache (TTL: %v)", cfg.GetCacheTTL())

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, identity)
	couponHandler := handlers.NewCouponHandler(cacheService)
	adminHandler := handlers.NewAdminHandler(cfg.AdminToken, searchService.Metrics(), cacheService, quotaService)

	// Background jobs
	cleanupJob := jobs.NewCacheCleanupJob(cacheService)
	go func() {
		cleanupTicker := time.NewTicker(12 * time.Hour)
		defer cleanupTicker.Stop()
		for range cleanupTicker.C {
			cleanupJob.Run()
		}
	}()

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	app.Post("/search-coupons", searchHandler.SearchCoupons)
	app.Post("/coupons", couponHandler.CreateCoupons)

	admin := app.Group("/admin", adminHandler.RequireAdmin)
	admin.Get("/metrics", adminHandler.GetMetrics)
	admin.Post("/cache/cleanup", adminHandler.TriggerCacheCleanup)
	admin.Get("/quota/:user_id", adminHandler.GetUserQuota)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
