package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/grepguru/zenlock-engine/internal/adapters/cache"
	adapterHTTP "github.com/grepguru/zenlock-engine/internal/adapters/handler/http"
	"github.com/grepguru/zenlock-engine/internal/adapters/repository"
	"github.com/grepguru/zenlock-engine/internal/core/domain"
	"github.com/grepguru/zenlock-engine/internal/core/livequery"
	"github.com/grepguru/zenlock-engine/internal/core/services"
	"github.com/grepguru/zenlock-engine/internal/core/workers"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	_ = godotenv.Load()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "zenlock_user"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "zenlock_db"),
	)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Critical: Failed to run migrations: %v", err)
	}

	log.Println("Database connected and migrated.")

	sessionRepo := repository.NewPostgresSessionRepository(db)
	mobileRepo := repository.NewPostgresMobileUsageRepository(db)
	scheduleRepo := repository.NewPostgresScheduleRepository(db)
	retentionRepo := repository.NewPostgresRetentionRepository(db)

	stats := repository.NewPostgresStatsRepository(db)

	// Redis is optional: without it stats reads skip the cache and the
	// rate limiter is disabled.
	redisClient, err := cache.NewRedisClient(
		getEnv("REDIS_HOST", "localhost"),
		getEnv("REDIS_PORT", "6379"),
		getEnv("REDIS_PASSWORD", ""),
		0,
	)
	if err != nil {
		log.Printf("Redis unavailable, continuing without stats cache: %v", err)
		redisClient = nil
	}

	registry := livequery.NewRegistry()

	var statsStore domain.StatsRepository = stats
	if redisClient != nil {
		statsStore = repository.NewCachedStatsRepository(stats, redisClient)
	}

	statsService := services.NewStatsService(sessionRepo, statsStore, registry)

	refreshWorker := workers.NewRefreshWorker(statsService)

	sessionService := services.NewSessionService(sessionRepo, refreshWorker, registry)
	comparisonService := services.NewComparisonService(statsStore)
	mobileService := services.NewMobileUsageService(mobileRepo, registry)
	scheduleService := services.NewScheduleService(scheduleRepo, registry)
	retentionService := services.NewRetentionService(retentionRepo, registry)

	tokenTTLHours, _ := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "720"))
	tokenService := services.NewTokenService(
		getEnv("JWT_SECRET", "dev-only-secret"),
		"zenlock-engine",
		time.Duration(tokenTTLHours)*time.Hour,
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	refreshWorker.Start(workerCtx)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:        adapterHTTP.NewAuthHandler(tokenService, getEnv("DEVICE_KEY", "dev-only-device-key")),
		SessionHandler:     adapterHTTP.NewSessionHandler(sessionService),
		StatsHandler:       adapterHTTP.NewStatsHandler(statsService, comparisonService),
		MobileUsageHandler: adapterHTTP.NewMobileUsageHandler(mobileService),
		ScheduleHandler:    adapterHTTP.NewScheduleHandler(scheduleService),
		RetentionHandler:   adapterHTTP.NewRetentionHandler(retentionService),
		LiveHandler:        adapterHTTP.NewLiveHandler(registry, sessionService, statsService),
		TokenService:       tokenService,
		DB:                 db,
		Redis:              redisClient,
		StartTime:          startTime,
	})

	serverPort := getEnv("PORT", "8080")

	// No WriteTimeout: the /live endpoints hold SSE streams open.
	srv := &http.Server{
		Addr:        ":" + serverPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("ZenLock engine running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
