package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/database"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/resolution"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	file := flag.String("file", cfg.Resolution.File, "path to the resolution JSON dataset")
	flag.Parse()

	// Setup logger
	logger := setupLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting resolution import", zap.String("file", *file))

	// Stop on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := database.NewResolutionRepo(db.DB())
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare resolution schema", zap.Error(err))
	}

	read, affected, err := resolution.Import(ctx, resolution.NewFileRepo(*file, logger), repo)
	if err != nil {
		logger.Fatal("Failed to import resolution dataset", zap.Error(err))
	}

	logger.Info("Resolution import complete",
		zap.Int("records", read),
		zap.Int64("rows_affected", affected),
	)
}

func setupLogger(level string) *zap.Logger {
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

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
