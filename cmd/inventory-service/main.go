package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	authhandler "github.com/clinicstock/backend/internal/auth/handler"
	"github.com/clinicstock/backend/internal/auth/jwt"
	authrepo "github.com/clinicstock/backend/internal/auth/repository"
	authservice "github.com/clinicstock/backend/internal/auth/service"
	"github.com/clinicstock/backend/internal/inventory/cache"
	"github.com/clinicstock/backend/internal/inventory/events"
	"github.com/clinicstock/backend/internal/inventory/handler"
	"github.com/clinicstock/backend/internal/inventory/metrics"
	"github.com/clinicstock/backend/internal/inventory/repository/postgres"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/config"
	"github.com/clinicstock/backend/pkg/database"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/messaging"
)

const serviceName = "inventory-service"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.DSN(), postgres.Migrations, postgres.MigrationsDir, log); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Events are optional: without a broker URL the publisher stays nil and
	// every publish is skipped.
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.Publisher
	)
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Warn().Msg("rabbitmq.url not set, inventory events are disabled")
	}

	var (
		redisClient  *redis.Client
		summaryCache *cache.SummaryCache
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
		summaryCache = cache.NewSummaryCache(redisClient, cfg.Inventory.SummaryCacheTTL, log)
	}

	m := metrics.New()
	store := postgres.New(db)

	opts := []service.Option{
		service.WithPublisher(publisher),
		service.WithSummaryCache(summaryCache),
		service.WithMetrics(m),
		service.WithExpiryWindow(cfg.Inventory.ExpiryWindowDays),
		service.WithReorderMonths(cfg.Inventory.ReorderMonths),
	}
	ledger := service.NewLedger(store, log, opts...)
	alerts := service.NewAlertGenerator(store, log, opts...)
	services := handler.Services{
		Catalog:   service.NewCatalog(store, log, opts...),
		Ledger:    ledger,
		Analytics: service.NewAnalytics(store, log, opts...),
		Alerts:    alerts,
		Orders:    service.NewPurchaseOrderManager(store, ledger, log, opts...),
	}

	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authservice.NewAuthService(authrepo.NewUserRepository(db), jwtManager, log)
	if cfg.Admin.Password != "" {
		if _, err := authService.EnsureUser(ctx, cfg.Admin.Username, cfg.Admin.Password, authservice.RoleAdmin); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}
	authHandler := authhandler.NewAuthHandler(authService, log)

	var scheduler *service.AlertScheduler
	if cfg.Inventory.ScanEnabled {
		scheduler = service.NewAlertScheduler(alerts, cfg.Inventory.ScanInterval, log)
		scheduler.Start(ctx)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		if redisClient != nil {
			redisStatus := map[string]string{"status": "up"}
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				redisStatus = map[string]string{"status": "down", "error": err.Error()}
			}
			status["redis"] = redisStatus
		}
		httputil.JSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(authhandler.RequireAuth(jwtManager)).Get("/me", authHandler.Me)
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(authhandler.RequireAuth(jwtManager))
		handler.Register(r, services, log)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
