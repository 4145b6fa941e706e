package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/urlclick/shortener/internal/cache"
	"github.com/urlclick/shortener/internal/config"
	"github.com/urlclick/shortener/internal/geoip"
	"github.com/urlclick/shortener/internal/handler"
	"github.com/urlclick/shortener/internal/logger"
	"github.com/urlclick/shortener/internal/middleware"
	"github.com/urlclick/shortener/internal/repository"
	"github.com/urlclick/shortener/internal/service"
)

func main() {
	// ============================================================
	// LOAD CONFIGURATION
	// ============================================================
	fmt.Println("📋 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if cfg.IsDevelopment() {
		fmt.Printf("   Environment: %s\n", cfg.App.Environment)
		fmt.Printf("   Port: %s\n", cfg.Server.Port)
		fmt.Printf("   Database: %s (%s)\n", cfg.Database.DSN, cfg.Database.Driver)
		fmt.Printf("   Base URL: %s\n", cfg.App.BaseURL)
	}

	// ============================================================
	// INITIALIZE LOGGER
	// ============================================================
	fmt.Println("📝 Initializing logger...")
	log := logger.New(cfg.Log)

	log.Info("starting url shortener",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
		"environment", cfg.App.Environment)

	// ============================================================
	// INITIALIZE LAYERS
	// ============================================================
	fmt.Println("🗄️  Connecting to database...")
	repo, err := repository.NewURLRepository(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", "error", err.Error())
		os.Exit(1)
	}

	// ============================================================
	// INITIALIZE REDIS CACHE
	// ============================================================
	log.Info("connecting to Redis...")
	redisCache := cache.NewRedisCache(&cfg.Redis)
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err.Error())
		}
	}()

	// The cache is an optimization: a dead Redis degrades every read
	// to a store lookup instead of failing startup.
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Warn("Redis unreachable, redirects will fall through to the store",
			"error", err.Error())
	} else {
		log.Info("Redis connected successfully!")
	}
	cancelPing()

	fmt.Println("🌍 Initializing geolocation client...")
	geo := geoip.NewClient(cfg.Geo)

	fmt.Println("⚙️  Initializing service...")
	svc := service.NewURLService(repo, redisCache, geo, cfg.App.BaseURL, log).
		WithGeoTimeout(cfg.Geo.Timeout)

	fmt.Println("🌐 Setting up HTTP handlers...")
	h := handler.NewURLHandler(svc)
	router := h.SetupRoutes()

	// ============================================================
	// BUILD MIDDLEWARE CHAIN
	// ============================================================
	middlewares := []middleware.Middleware{
		middleware.RequestID,
		middleware.RecoveryWithLogger(log),
		middleware.LoggingWithLogger(log),
	}
	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			middleware.RateLimiterConfig{
				Rate:     cfg.RateLimit.Rate,
				Burst:    cfg.RateLimit.Burst,
				Interval: cfg.RateLimit.Interval,
				Cleanup:  cfg.RateLimit.Cleanup,
			},
			log,
		)
		middlewares = append(middlewares, rateLimiter.Middleware())
		log.Info("rate limiter enabled",
			"rate", cfg.RateLimit.Rate,
			"burst", cfg.RateLimit.Burst,
		)
	}

	wrappedRouter := middleware.Chain(router, middlewares...)

	// ============================================================
	// CREATE SERVER WITH CONFIG TIMEOUTS
	// ============================================================
	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      wrappedRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		if cfg.IsDevelopment() {
			fmt.Printf("🚀 Server starting on http://localhost%s\n", addr)
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Endpoints:")
			fmt.Println("  POST /url/shorten       - Create short URL")
			fmt.Println("  GET  /url/{code}        - Redirect + record click")
			fmt.Println("  GET  /url/{code}/stats  - View statistics")
			fmt.Println("  GET  /health            - Health check")
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Press Ctrl+C to shutdown gracefully")
		}
		log.Info("server starting", "addr", "http://localhost"+addr)
		serverErr <- server.ListenAndServe()
	}()

	// ============================================================
	// WAIT FOR SHUTDOWN OR ERROR
	// ============================================================
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err.Error())
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
			if err := server.Close(); err != nil {
				log.Error("forced shutdown failed", "error", err.Error())
			}
		}

		if err := repo.Close(); err != nil {
			log.Error("failed to close database", "error", err.Error())
		}

		log.Info("server stopped")
	}
}
