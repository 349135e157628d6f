package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campushub-erp/campushub/internal/app"
	"github.com/campushub-erp/campushub/internal/certificates"
	"github.com/campushub-erp/campushub/internal/fees"
	"github.com/campushub-erp/campushub/internal/leave"
	"github.com/campushub-erp/campushub/internal/lms"
	"github.com/campushub-erp/campushub/internal/observability"
	"github.com/campushub-erp/campushub/internal/platform/cache"
	"github.com/campushub-erp/campushub/internal/platform/db"
	"github.com/campushub-erp/campushub/internal/platform/objstore"
	"github.com/campushub-erp/campushub/internal/reports"
	"github.com/campushub-erp/campushub/internal/shared"
	"github.com/campushub-erp/campushub/internal/students"
	"github.com/campushub-erp/campushub/internal/teachers"
	"github.com/campushub-erp/campushub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := objstore.New(ctx, objstore.Config{
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKey,
		SecretAccessKey: cfg.StorageSecretKey,
		Bucket:          cfg.StorageBucket,
		UseSSL:          cfg.StorageUseSSL,
		Region:          cfg.StorageRegion,
	})
	if err != nil {
		logger.Error("connect object storage", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "campushub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	studentsRepo := students.NewRepository(pool)
	studentsService := students.NewService(studentsRepo, logger)
	studentsHandler := students.NewHandler(studentsService)

	feesRepo := fees.NewRepository(pool)
	feesService := fees.NewService(feesRepo, logger)
	feesHandler := fees.NewHandler(feesService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	feesService.SetNotifier(reportCache)
	reportsService := reports.NewService(feesService, reportCache, metrics, logger)
	reportsService.SetCurrencySymbol(cfg.CurrencySymbol)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	reportsHandler := reports.NewHandler(reportsService, jobClient)

	teachersRepo := teachers.NewRepository(pool)
	teachersService := teachers.NewService(teachersRepo, store, logger)
	teachersHandler := teachers.NewHandler(teachersService)

	leaveRepo := leave.NewRepository(pool)
	leaveService := leave.NewService(leaveRepo, logger)
	leaveHandler := leave.NewHandler(leaveService)

	lmsRepo := lms.NewRepository(pool)
	lmsService := lms.NewService(lmsRepo, store, logger)
	lmsHandler := lms.NewHandler(lmsService)

	certificatesRepo := certificates.NewRepository(pool)
	certificatesService := certificates.NewService(certificatesRepo, store, logger)
	certificatesHandler := certificates.NewHandler(certificatesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		StudentsHandler:     studentsHandler,
		FeesHandler:         feesHandler,
		ReportsHandler:      reportsHandler,
		TeachersHandler:     teachersHandler,
		LeaveHandler:        leaveHandler,
		LMSHandler:          lmsHandler,
		CertificatesHandler: certificatesHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
