// Package app assembles the tracker: store, cache, services, HTTP surface,
// and background jobs, from one Config.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"laci-tracker/internal/api"
	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/config"
	"laci-tracker/internal/db"
	"laci-tracker/internal/directory"
	"laci-tracker/internal/middleware"
	"laci-tracker/internal/repository"
	"laci-tracker/internal/scheduler"
	"laci-tracker/internal/service"
)

// App holds every long-lived component. Close releases them in reverse
// construction order.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Cache   *cache.Cache

	Handler   *api.Handler
	Health    *api.Health
	Scheduler *scheduler.Scheduler
}

// New builds the application. The store is migrated on startup; the cache
// backend is probed once and replaced with the degraded no-op client when
// unreachable.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	writeDB, readDB, err := db.OpenSQLitePair(cfg.DBPath, 0)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.RunMigrations(writeDB); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	cacheClient := newCacheClient(cfg, logger)
	c := cache.New(cacheClient, logger.With("component", "cache"))

	rec := audit.NewRecorder(repository.NewAuditRepo(writeDB), logger.With("component", "audit"))

	// Repositories ride the write pool: SQLite serializes writers anyway,
	// and reads on the same pool see their own writes.
	apps := service.NewApplicationService(repository.NewApplicationRepo(writeDB), c, rec,
		logger.With("component", "applications"))
	cats := service.NewCategoryService(repository.NewCategoryRepo(writeDB), c, rec,
		logger.With("component", "categories"))
	fields := service.NewFieldService(repository.NewFieldRepo(writeDB), c, rec,
		logger.With("component", "fields"))
	entries := service.NewEntryService(repository.NewEntryRepo(writeDB), c, rec,
		logger.With("component", "entries"))
	approvers := service.NewApproverService(repository.NewApproverRepo(writeDB), c,
		cfg.AdminGroups, logger.With("component", "approvers"))
	approvals := service.NewApprovalService(repository.NewApprovalRepo(writeDB), approvers, c, rec,
		logger.With("component", "approvals"))
	users := service.NewUserService(repository.NewUserRepo(writeDB), c, rec,
		logger.With("component", "users"))
	auditSvc := service.NewAuditService(repository.NewAuditRepo(readDB), users, apps, cats, fields, c,
		logger.With("component", "audit-read"))
	scanner := service.NewScanner(apps, cats, fields, repository.NewEntryRepo(readDB), c,
		logger.With("component", "scanner"))

	var dir *directory.Service
	if cfg.Directory.BaseURL != "" {
		graph := directory.NewGraphClient(cfg.Directory.BaseURL, cfg.Directory.Token,
			cfg.Directory.InternalSuffix, logger.With("component", "directory"))
		dir = directory.NewService(graph, c, logger.With("component", "directory"))
	}

	handler := api.NewHandler(api.Services{
		Applications: apps,
		Categories:   cats,
		Fields:       fields,
		Entries:      entries,
		Approvals:    approvals,
		Approvers:    approvers,
		Users:        users,
		Audit:        auditSvc,
		Scanner:      scanner,
		Directory:    dir,
	}, c, logger.With("component", "api"))

	a := &App{
		Config:  cfg,
		Logger:  logger,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Cache:   c,
		Handler: handler,
		Health:  api.NewHealth(readDB, cacheClient),
	}
	if dir != nil {
		a.Scheduler = scheduler.New(dir, logger.With("component", "scheduler"))
	}
	return a, nil
}

// Router builds the HTTP handler for this app.
func (a *App) Router() *api.Handler { return a.Handler }

// RouterConfig derives the HTTP cross-cutting settings from the config.
func (a *App) RouterConfig() api.RouterConfig {
	return api.RouterConfig{
		JWTSecret:      []byte(a.Config.JWTSecret),
		AllowedOrigins: a.Config.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.Config.RateLimitRPS,
			Burst:             a.Config.RateLimitBurst,
		},
	}
}

// Start launches background jobs.
func (a *App) Start() error {
	if a.Scheduler != nil {
		return a.Scheduler.Start(a.Config.Directory.WarmSchedule)
	}
	return nil
}

// Close stops background jobs and closes the store pools.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if err := a.ReadDB.Close(); err != nil {
		a.Logger.Warn("read pool close failed", "error", err)
	}
	if err := a.WriteDB.Close(); err != nil {
		a.Logger.Warn("write pool close failed", "error", err)
	}
}

// newCacheClient picks the backend: redis when configured and reachable,
// otherwise the no-op degraded client. A configured-but-down redis does not
// block startup.
func newCacheClient(cfg *config.Config, logger *slog.Logger) cache.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("no cache backend configured, running degraded")
		return cache.NewNoopClient()
	}
	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		logger.Warn("cache backend unreachable, running degraded",
			"addr", cfg.RedisAddr, "error", err)
		return cache.NewNoopClient()
	}
	logger.Info("cache backend connected", "addr", cfg.RedisAddr)
	return client
}
