package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/persistence"
	"github.com/medico/backend/internal/infrastructure/seed"
	"go.uber.org/zap"
)

func main() {
	var (
		count    int
		seedVal  uint64
		logLevel string
	)
	flag.IntVar(&count, "n", 20, "Number of medicines to create")
	flag.Uint64Var(&seedVal, "seed", 0, "Faker seed for reproducible data (0 = random)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if count < 0 {
		log.Fatal("Medicine count cannot be negative", zap.Int("n", count))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(logLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo := persistence.NewGormCatalogRepository(db.DB)
	res, err := seed.Seed(ctx, repo, repo, seed.NewGenerator(seedVal, catalog.DefaultCategories), count, log)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err), zap.Int("medicines_written", res.Medicines))
	}

	log.Info("Catalog seeded",
		zap.Int("categories", res.Categories),
		zap.Int("medicines", res.Medicines),
		zap.Uint64("seed", seedVal),
	)
}
