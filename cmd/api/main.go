package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/top-holders-frame/internal/application/services"
	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/airstack"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/cache"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/coingecko"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/database"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/farcaster"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/resolution"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/subgraph"
	"github.com/bimakw/top-holders-frame/internal/presentation/handlers"
	"github.com/bimakw/top-holders-frame/internal/presentation/middleware"
	"github.com/bimakw/top-holders-frame/internal/presentation/render"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	logger.Info("Starting top-holders frame",
		zap.Int("port", cfg.API.Port),
		zap.String("app_url", cfg.API.AppURL),
		zap.String("resolution_source", cfg.Resolution.Source),
	)

	// Connect to Redis cache (optional)
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(cfg.Redis, cfg.Cache.DefaultTTL, logger)
		if err != nil {
			logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// Resolution table source
	var (
		resolutionRepo    repositories.ResolutionRepository
		resolutionChecker handlers.HealthChecker
		dbChecker         handlers.HealthChecker
	)
	switch cfg.Resolution.Source {
	case config.ResolutionSourcePostgres:
		db, err := database.NewPostgresDB(cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := database.NewResolutionRepo(db.DB())
		if err := repo.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("Failed to prepare resolution schema", zap.Error(err))
		}
		resolutionRepo = repo
		resolutionChecker = repo
		dbChecker = db
	default:
		fileRepo := resolution.NewFileRepo(cfg.Resolution.File, logger)
		resolutionChecker = fileRepo
		if cfg.Resolution.Reload {
			resolutionRepo = fileRepo
		} else {
			resolutionRepo = resolution.NewMemoized(fileRepo)
		}
	}

	// Create upstream clients and repositories
	subgraphClient := httpclient.New("subgraph", cfg.Subgraph.RequestTimeout, logger)
	priceClient := httpclient.New("coingecko", cfg.Price.RequestTimeout, logger)
	avatarClient := httpclient.New("avatar", cfg.Frame.AvatarTimeout, logger)

	portfolioRepo := subgraph.NewPortfolioRepo(subgraphClient, cfg.Subgraph, logger)
	socialRepo := airstack.NewSocialRepo(airstack.NewClient(cfg.Airstack, logger), cfg.Airstack, logger)
	priceRepo := coingecko.NewPriceRepo(priceClient, cfg.Price, logger)

	// Create services
	holdersService := services.NewHoldersService(
		portfolioRepo, resolutionRepo, socialRepo, redisCache, cfg.Cache, cfg.Frame.EnrichConcurrency, logger,
	)
	priceService := services.NewPriceService(priceRepo, redisCache, cfg.Price, cfg.Cache.PriceTTL, logger)
	frameService := services.NewFrameService(holdersService, cfg.API.AppURL, cfg.Frame, logger)

	renderer, err := render.NewRenderer(cfg.Frame, render.NewHTTPAvatarFetcher(avatarClient), logger)
	if err != nil {
		logger.Fatal("Failed to create renderer", zap.Error(err))
	}

	// Create handlers
	holdersHandler := handlers.NewHoldersHandler(holdersService, logger)
	priceHandler := handlers.NewPriceHandler(priceService, logger)
	frameHandler := handlers.NewFrameHandler(
		frameService, farcaster.NewValidator(cfg.Farcaster, logger), renderer, cfg.Frame, logger,
	)

	var cacheChecker handlers.HealthChecker
	if redisCache != nil {
		cacheChecker = redisCache
	}
	healthHandler := handlers.NewHealthHandler(resolutionChecker, dbChecker, cacheChecker)

	// Setup router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)

	// Health endpoints (no rate limiting)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)
	r.Handle("/metrics", promhttp.Handler())

	// Frame routes
	r.Get("/", frameHandler.Landing)
	r.Get("/frames", frameHandler.Frame)
	r.Post("/frames", frameHandler.Frame)
	r.Get("/frames/image", frameHandler.Image)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.API.RateLimitRPS))
		r.Get("/list-holder", holdersHandler.ListHolders)
		r.Get("/price", priceHandler.GetPrice)
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Run server in goroutine
	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal, shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func setupLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoding := "json"
	encoderConfig := zap.NewProductionEncoderConfig()
	if format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
