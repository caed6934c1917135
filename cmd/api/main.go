package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/octobees/orgscout/internal/auth"
	"github.com/octobees/orgscout/internal/config"
	"github.com/octobees/orgscout/internal/database"
	"github.com/octobees/orgscout/internal/engine"
	"github.com/octobees/orgscout/internal/enrich"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/fetch"
	"github.com/octobees/orgscout/internal/handler"
	"github.com/octobees/orgscout/internal/jobs"
	middlewarepkg "github.com/octobees/orgscout/internal/middleware"
	"github.com/octobees/orgscout/internal/repository"
	"github.com/octobees/orgscout/internal/router"
	"github.com/octobees/orgscout/internal/search"
	"github.com/octobees/orgscout/internal/service"
)

// orgSaver adapts the organizations repository to the engine's save hook.
type orgSaver struct {
	repo repository.OrganizationsRepository
}

func (s orgSaver) SaveOrganization(ctx context.Context, e *entity.OrganizationEntry) error {
	return s.repo.Upsert(ctx, e)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to parse redis url: %v", err)
		}
		cache = redis.NewClient(opt)
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, page cache disabled: %v", err)
			cache = nil
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	orgsRepo := repository.NewPGXOrganizationsRepository(pool)
	runsRepo := repository.NewPGXRunsRepository(pool)
	operatorsRepo := repository.NewPGXOperatorsRepository(pool)

	authService := service.NewAuthService(operatorsRepo, jwtManager)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin operator: %v", err)
	}
	orgsService := service.NewOrganizationsService(orgsRepo)

	registry := jobs.NewRegistry(jobs.DefaultTTL)
	registry.StartSweeper()
	defer registry.Close()

	pagesClient := fetch.New(cfg.Scraper, fetch.WithCache(cache))
	enricher := enrich.FromConfig(cfg.Scraper, cache)
	discoverer := search.New(fetch.New(cfg.Scraper, fetch.WithCache(cache)), 0)

	notifier := handler.MultiNotifier{handler.NewRunRecorder(runsRepo)}
	if monitor := handler.NewMonitorClient(nil, cfg.MonitorWebhookURL); monitor != nil {
		notifier = append(notifier, monitor)
	}

	scrapeEngine := engine.New(cfg.Scraper, pagesClient, enricher, discoverer, registry, orgSaver{repo: orgsRepo}, notifier)

	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Organizations: handler.NewOrganizationsHandler(orgsService),
		Runs:          handler.NewRunHandler(scrapeEngine, registry, runsRepo),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()
	log.Printf("listening on port %s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
