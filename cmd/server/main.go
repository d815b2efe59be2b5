package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adolago/studypath/internal/api"
	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/engine"
	"github.com/adolago/studypath/internal/platform/cache"
	"github.com/adolago/studypath/internal/platform/config"
	"github.com/adolago/studypath/internal/platform/database"
	"github.com/adolago/studypath/internal/progress"
	"github.com/adolago/studypath/internal/question"
	"github.com/adolago/studypath/internal/spacedrep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		slog.Error("failed to load curriculum", "path", cfg.CurriculumPath, "error", err)
		os.Exit(1)
	}
	graph := loader.Graph()

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// The cache is an optimization; the service runs without it.
	var cacheClient *cache.Cache
	if c, err := cache.New(ctx, cfg.Cache.URL); err != nil {
		slog.Warn("cache unavailable, continuing without it", "error", err)
	} else {
		cacheClient = c
		defer cacheClient.Close()
	}

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create progress store", "error", err)
		os.Exit(1)
	}
	bank := question.NewPostgresBank(db.Pool)

	var exclusions question.Exclusions
	var marker engine.RecentMarker
	var plans engine.PlanCache
	if cacheClient != nil {
		exclusions = cacheClient
		marker = cacheClient
		plans = cache.NewPlans(cacheClient, cfg.Cache.PlanTTL)
	}

	eng := engine.New(engine.Config{
		Graph:     graph,
		Store:     store,
		Picker:    question.NewPicker(bank, store, exclusions),
		PlanCache: plans,
		Marker:    marker,
		Intervals: spacedrep.Params{
			MinInterval:   cfg.Scheduler.MinInterval,
			MaxInterval:   cfg.Scheduler.MaxInterval,
			ResetInterval: cfg.Scheduler.ResetInterval,
		},
		MaxDepth: cfg.Scheduler.MaxDepth,
	})

	apiCfg := api.Config{
		Engine:    eng,
		Graph:     graph,
		TokenHash: cfg.Auth.TokenHash,
		PlanLimit: cfg.Scheduler.PlanLimit,
		DB:        db,
	}
	if cacheClient != nil {
		apiCfg.Cache = cacheClient
	}
	server := api.New(apiCfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     server.Routes(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: the plan stream holds its connection open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
