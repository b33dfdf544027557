package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"igensys-backend/config"
	"igensys-backend/migrations"
	"igensys-backend/platform/db"
	applog "igensys-backend/platform/logger"
)

func main() {
	cfg := config.Load()
	logger := applog.New(applog.Config{
		Service:     cfg.ServiceName + "-migrate",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		AddSource:   cfg.LogAddSource,
	})
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DBURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := migrations.Run(ctx, database, filepath.Join("migrations", "sql")); err != nil {
		logger.Error("database migrations failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")
}
