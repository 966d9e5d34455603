package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	paymentHandler "github.com/jwalitptl/clinic-api/internal/handler/payment"
	prescriptionHandler "github.com/jwalitptl/clinic-api/internal/handler/prescription"
	promHandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	reportHandler "github.com/jwalitptl/clinic-api/internal/handler/report"
	userHandler "github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	eventService "github.com/jwalitptl/clinic-api/internal/service/event"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	paymentService "github.com/jwalitptl/clinic-api/internal/service/payment"
	prescriptionService "github.com/jwalitptl/clinic-api/internal/service/prescription"
	reportService "github.com/jwalitptl/clinic-api/internal/service/report"
	userService "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Initialize storage
	store, db, err := openStore(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to initialize storage")
	}
	if db != nil {
		defer db.Close()
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, "clinic")

	// Initialize services
	var mailer email.Service = email.NewLogService()
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	events := eventService.NewEventService(store.Outbox)

	authSvc := authService.NewService(store, jwtSvc, hasher, mailer, events)
	promoter := appointmentService.NewPromoter(store, events, m, cfg.Appointments.AtomicPromotion)
	if !cfg.Appointments.AtomicPromotion {
		appLogger.Warn("atomic promotion disabled, concurrent registrations may create duplicate patients")
	}

	// Initialize handlers
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}
	handlers := router.Handlers{
		Auth:         authHandler.NewHandler(authSvc, cfg.Server.CookieSecure),
		Health:       health.NewHandler(pinger),
		Metrics:      promHandler.New(registry),
		Patient:      patientHandler.NewHandler(patientService.NewService(store, events)),
		Appointment:  appointmentHandler.NewHandler(appointmentService.NewService(store, events, promoter)),
		Prescription: prescriptionHandler.NewHandler(prescriptionService.NewService(store, events)),
		Payment:      paymentHandler.NewHandler(paymentService.NewService(store, events)),
		User:         userHandler.NewHandler(userService.NewService(store, hasher, mailer, events)),
		Report:       reportHandler.NewHandler(reportService.NewService(store.Reports)),
	}

	// Setup router
	headers := middleware.DefaultSecurityConfig()
	headers.HSTS = cfg.Server.CookieSecure
	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc, m), handlers, router.RouterConfig{
		Mode:      cfg.Server.Mode,
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
		Security:  headers,
		Logger:    *appLogger.Zerolog(),
		Metrics:   m,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		appLogger.Info("server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
		return
	}

	appLogger.Info("server exited properly")
}

// openStore returns the repositories for the configured driver. db is nil
// for the memory driver.
func openStore(cfg config.DatabaseConfig) (*repository.Store, *sqlx.DB, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewStore(memory.NewDB()), nil, nil
	case "postgres", "":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(context.Background(), db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return postgres.NewStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
