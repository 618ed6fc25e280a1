package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/climacol/clima-core/internal/api/http"
	"github.com/climacol/clima-core/internal/cache"
	"github.com/climacol/clima-core/internal/config"
	"github.com/climacol/clima-core/internal/metrics"
	"github.com/climacol/clima-core/internal/ratelimit"
	"github.com/climacol/clima-core/internal/scheduler"
	"github.com/climacol/clima-core/internal/weather"
	"github.com/climacol/clima-core/internal/weather/providers"
)

func main() {
	// Load configuration; base URLs outside the allow-list abort startup.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Process-wide cache and throttle, shared across all callers.
	responseCache := cache.New(cfg.CacheTTL)
	limiter := ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultMaxRequests)
	collector := metrics.NewCollector("clima_core", prometheus.DefaultRegisterer)

	// Provider clients with resilience (backoff + circuit breaker).
	openMeteo := providers.NewOpenMeteoClient(httpClient, cfg.OpenMeteoBase)
	openWeather := providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherBase, cfg.OpenWeatherAPIKey)
	nominatim := providers.NewNominatimClient(httpClient, cfg.NominatimBase)

	// Core aggregation and alert services.
	aggregator := weather.NewAggregator(openMeteo, openWeather, nominatim, responseCache, limiter, collector)
	alertEngine := weather.NewAlertEngine(openWeather, openMeteo, collector)

	// Scheduler keeping tracked cities warm in the cache.
	sched := scheduler.New(cfg.TrackedCities, cfg.RefreshInterval, aggregator)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "clima-core",
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
			"service": "clima-core",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, aggregator, alertEngine)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
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
