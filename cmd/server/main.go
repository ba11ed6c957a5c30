package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/greenmarine/internal"
	"github.com/DukeRupert/greenmarine/internal/catalog"
	"github.com/DukeRupert/greenmarine/internal/crm"
	"github.com/DukeRupert/greenmarine/internal/csrf"
	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/email"
	"github.com/DukeRupert/greenmarine/internal/engine"
	"github.com/DukeRupert/greenmarine/internal/events"
	"github.com/DukeRupert/greenmarine/internal/handler"
	"github.com/DukeRupert/greenmarine/internal/jobs"
	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/middleware"
	"github.com/DukeRupert/greenmarine/internal/monitor"
	"github.com/DukeRupert/greenmarine/internal/report"
	"github.com/DukeRupert/greenmarine/internal/repository"
	"github.com/DukeRupert/greenmarine/internal/service"
	"github.com/DukeRupert/greenmarine/internal/session"
	"github.com/DukeRupert/greenmarine/internal/storage"
	"github.com/DukeRupert/greenmarine/internal/wizard"
	"github.com/DukeRupert/greenmarine/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	middleware.SetupPropagation()

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	queries := repository.New(db)

	// ==========================================================================
	// Recommendation engine
	// ==========================================================================

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}
	eng, err := engine.New(cat)
	if err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}
	logger.Info("Motor catalog loaded", "motors", len(cat), "source", catalogSource(cfg.CatalogPath))

	// ==========================================================================
	// Delivery collaborators
	// ==========================================================================

	store, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}

	var crmClient crm.Client
	if cfg.CRMEnabled() {
		client, err := crm.New(crm.Config{
			APIKey:        cfg.PipedriveAPIKey,
			CompanyDomain: cfg.PipedriveCompanyDomain,
			BaseURL:       cfg.PipedriveBaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("pipedrive initialization failed: %w", err)
		}
		crmClient = client
		logger.Info("Pipedrive forwarding enabled", "domain", cfg.PipedriveCompanyDomain)
	} else {
		logger.Warn("PIPEDRIVE_API_KEY not set, leads are stored but not forwarded")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	recorder := monitor.NewHTTPRecorder(cfg.LogEndpoint, logger)

	// ==========================================================================
	// Worker
	// ==========================================================================

	var notifier service.Notifier
	var w *worker.Worker
	if cfg.WorkerEnabled {
		w, err = worker.New(worker.NewPostgresStore(db, queries), worker.Config{
			Concurrency:       cfg.WorkerConcurrency,
			PollInterval:      cfg.WorkerPollInterval,
			JobTimeout:        cfg.WorkerJobTimeout,
			ShutdownTimeout:   30 * time.Second,
			StaleJobThreshold: 10 * time.Minute,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}

		w.Register(jobs.NewForwardLeadHandler(jobs.ForwardLeadDeps{
			Queries:    queries,
			CRM:        crmClient,
			Email:      emailService,
			Sheets:     report.NewSheetGenerator(),
			Storage:    store,
			Publisher:  publisher,
			Monitor:    recorder,
			SalesEmail: cfg.SalesEmail,
		}, logger))

		notifier = w
	} else {
		logger.Warn("Worker disabled, leads queue up until a worker runs")
	}

	// ==========================================================================
	// Services and handlers
	// ==========================================================================

	leadService := service.NewLeadService(
		service.NewPostgresLeadStore(db, queries),
		eng,
		notifier,
		recorder,
		logger,
	)

	sessions := session.NewStore(func() *wizard.Controller {
		return wizard.NewController(eng, cfg.WizardAdvanceDelay, logger)
	}, cfg.SessionTTL, cfg.MaxWizardSessions, logger)
	defer sessions.Close()

	isSecure := cfg.Env != "development"

	submitLimiter := middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow, logger)
	defer submitLimiter.Close()
	limitSubmit := middleware.NewRateLimitMiddleware(submitLimiter, logger).Limit

	operatorAuth := middleware.NewBasicAuthMiddleware("greenmarine", cfg.MetricsUsername, cfg.MetricsPassword)
	if !operatorAuth.Enabled() {
		logger.Warn("METRICS_USERNAME/METRICS_PASSWORD not set, /metrics and lead lookup are unprotected")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", operatorAuth.Handler(promhttp.Handler()))

	if local, ok := store.(*storage.LocalStorage); ok {
		mux.Handle("GET /files/", http.StripPrefix("/files/", local.Handler()))
	}

	handler.NewCalculatorHandler(eng, logger).RegisterRoutes(mux)
	handler.NewWizardHandler(sessions, leadService, isSecure, logger).RegisterRoutes(mux, csrf.Protect(logger), limitSubmit)
	handler.NewLeadHandler(leadService, logger).RegisterRoutes(mux, limitSubmit, operatorAuth.Handler)

	app := middleware.Stack(
		middleware.Tracing("greenmarine"),
		metrics.Middleware,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(isSecure, cfg.FrameAncestors).Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if w != nil {
		w.Start(workerCtx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if w != nil {
		w.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func loadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func catalogSource(path string) string {
	if strings.TrimSpace(path) == "" {
		return "embedded"
	}
	return path
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
