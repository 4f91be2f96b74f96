package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
)

func main() {
	dir := flag.String("dir", database.MigrationsDir, "directory holding the sql-migrate files")
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("migrate.connect_failed", zap.Error(err))
	}
	defer database.CloseDB(db, logger)

	if *down > 0 {
		if _, err := database.Rollback(db, *dir, database.DialectPostgres, *down, logger); err != nil {
			logger.Fatal("migrate.rollback_failed", zap.Error(err))
		}
		return
	}
	if _, err := database.Migrate(db, *dir, database.DialectPostgres, logger); err != nil {
		logger.Fatal("migrate.apply_failed", zap.Error(err))
	}
}
