package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"igensys-backend/config"
	"igensys-backend/controller"
	"igensys-backend/middleware"
	"igensys-backend/migrations"
	"igensys-backend/platform/db"
	applog "igensys-backend/platform/logger"
	"igensys-backend/platform/rediscache"
	"igensys-backend/registry"
	"igensys-backend/store"

	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	db     *sql.DB
	redis  *redis.Client
	ctrl   *controller.Controller
	logger *slog.Logger
}

func New(cfg config.Config) (*App, error) {
	logger := applog.New(applog.Config{
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		AddSource:   cfg.LogAddSource,
	})
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DBURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Redis is optional: without it the widget analytics buffer is skipped.
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache, err = rediscache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	tenants := registry.New(cfg.TenantsFile)
	if err := tenants.EnsureExists(); err != nil {
		_ = database.Close()
		return nil, err
	}

	leadStore := store.New(database)
	if cfg.EnableAutoMigration {
		if err := migrations.Run(ctx, database, filepath.Join("migrations", "sql")); err != nil {
			_ = database.Close()
			return nil, err
		}
	}
	if err := leadStore.EnsureSchema(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	app := &App{cfg: cfg, db: database, redis: cache, logger: logger}
	app.ctrl = controller.New(cfg, leadStore, tenants, cache, logger)
	return app, nil
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) Handler() http.Handler {
	return middleware.WithCommonHeaders(a.routes(), a.cfg.CORSAllowedOrigins)
}

func Run() error {
	cfg := config.Load()
	app, err := New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.ctrl.StartBackgroundWorkers(ctx)
	app.logger.Info("iGenSys API listening", "port", cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, app.Handler())
}
