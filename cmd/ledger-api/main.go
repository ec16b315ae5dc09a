package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pledge-points-api/api/swagger"
	"github.com/noah-isme/pledge-points-api/internal/handler"
	"github.com/noah-isme/pledge-points-api/internal/middleware"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	"github.com/noah-isme/pledge-points-api/internal/service"
	"github.com/noah-isme/pledge-points-api/pkg/cache"
	"github.com/noah-isme/pledge-points-api/pkg/config"
	"github.com/noah-isme/pledge-points-api/pkg/jobs"
	"github.com/noah-isme/pledge-points-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pledge-points-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pledge-points-api/pkg/middleware/requestid"
	"github.com/noah-isme/pledge-points-api/pkg/notify"
	"github.com/noah-isme/pledge-points-api/pkg/storage"
)

// @title Pledge Points API
// @version 1.0.0
// @description Pledge points, approvals, interviews and reports for the chat platform adapter
// @BasePath /
// @schemes http

const (
	shutdownTimeout = 10 * time.Second
	webhookTimeout  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	migrator := repository.NewMigrator(repository.MigrationPaths{
		Roster:     cfg.Storage.RosterFile,
		Ledger:     cfg.Storage.LedgerFile,
		Pending:    cfg.Storage.PendingFile,
		Sequence:   cfg.Storage.SequenceFile,
		Interviews: cfg.Storage.InterviewFile,
		Version:    cfg.Storage.VersionFile,
	}, logr)
	if _, err := migrator.Apply(ctx); err != nil {
		return fmt.Errorf("migrate data dir: %w", err)
	}

	rosterRepo := repository.NewRosterRepository(cfg.Storage.RosterFile)
	ledgerRepo := repository.NewLedgerRepository(cfg.Storage.LedgerFile)
	pendingRepo := repository.NewPendingRepository(cfg.Storage.PendingFile, cfg.Storage.SequenceFile)
	interviewRepo := repository.NewInterviewRepository(cfg.Storage.InterviewFile)

	backups, err := storage.NewLocalStorage(cfg.Storage.BackupDir)
	if err != nil {
		return fmt.Errorf("open backup dir: %w", err)
	}
	artifacts, err := storage.NewLocalStorage(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("open artifact dir: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SigningSecret, cfg.Artifacts.TTL)

	metrics := service.NewMetricsService()
	metricsHandler := handler.NewMetricsHandler(metrics)
	metricsHandler.AddCheck("data_dir", func(context.Context) error {
		_, err := os.Stat(cfg.Storage.DataDir)
		return err
	})

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "pledges", logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			metricsHandler.AddCheck("redis", repo.Ping)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr)

	notifier := notify.NewWebhookNotifier(webhookTimeout, cfg.Digest.Retries, logr)
	recovery := recoveryAlert(ctx, notifier, cfg.Digest.Webhooks, logr)

	validate := validator.New()
	roster := service.NewRosterService(rosterRepo, cacheSvc, validate, logr)
	ledger := service.NewLedgerService(ledgerRepo, rosterRepo, backups, logr,
		service.WithLedgerLimits(cfg.Ledger.PointLimit, cfg.Ledger.CommentMaxLength),
		service.WithBackupRetention(cfg.Storage.BackupRetain),
		service.WithLedgerCache(cacheSvc),
		service.WithLedgerMetrics(metrics),
		service.WithRecoveryObserver(recovery),
	)
	approvals := service.NewApprovalService(pendingRepo, ledger, roster, logr,
		service.WithApprovalMetrics(metrics),
		service.WithApprovalRecoveryObserver(recovery),
	)
	interviews := service.NewInterviewService(interviewRepo, rosterRepo, cacheSvc, metrics, validate, logr)
	interviews.SetRecoveryObserver(recovery)

	reports := service.NewReportService(ledger, rosterRepo, artifacts, signer, service.ReportConfig{
		APIPrefix:     cfg.APIPrefix,
		ArtifactTTL:   cfg.Artifacts.TTL,
		RenderTimeout: cfg.Artifacts.RenderTimeout,
	}, logr, service.WithReportMetrics(metrics))
	reports.StartCleanup(ctx)

	logs := service.NewLogService(cfg.Log.File, logr)
	status := service.NewStatusService(startedAt, rosterRepo, ledger, approvals, interviews, metrics, logr)
	auth := service.NewAuthService(logr, service.AuthConfig{TokenSecret: cfg.Platform.TokenSecret, Leeway: 30 * time.Second})

	var digest *service.DigestService
	if cfg.Digest.Enabled {
		queue := jobs.NewQueue("digest", func(ctx context.Context, job jobs.Job) error {
			return digest.Handle(ctx, job)
		}, jobs.QueueConfig{Workers: 2, MaxRetries: cfg.Digest.Retries, RetryDelay: 5 * time.Second, MaxRetryDelay: time.Minute, Logger: logr})
		digest = service.NewDigestService(ledger, reports, logs, notifier, queue, service.DigestConfig{
			Times:        cfg.Digest.Times,
			Webhooks:     cfg.Digest.Webhooks,
			LogRetention: cfg.Log.Retention,
		}, metrics, logr)
		queue.Start(ctx)
		defer queue.Stop()
		digest.StartScheduler(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.CommandLog(logr))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := handler.NewAdminHandler(logs, status, nil)
	if digest != nil {
		admin = handler.NewAdminHandler(logs, status, digest)
	}
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Pledges:    handler.NewPledgeHandler(roster, ledger),
		Points:     handler.NewPointsHandler(ledger),
		Pending:    handler.NewPendingHandler(approvals),
		Interviews: handler.NewInterviewHandler(interviews),
		Reports:    handler.NewReportHandler(reports),
		Admin:      admin,
	}, middleware.PlatformAuth(auth), handler.Roles{Member: cfg.Platform.MemberRole, Approver: cfg.Platform.ApproverRole})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// recoveryAlert posts a warning to the digest webhooks when a data file had to be replaced by an
// empty table.
func recoveryAlert(ctx context.Context, notifier *notify.WebhookNotifier, webhooks []string, logr *zap.Logger) service.RecoveryObserver {
	return service.RecoveryObserverFunc(func(store, path string, cause error) {
		if len(webhooks) == 0 {
			return
		}
		msg := notify.Message{Content: fmt.Sprintf("Warning: the %s file at %s could not be read and was treated as empty (%v).", store, path, cause)}
		go func() {
			for _, url := range webhooks {
				if err := notifier.Send(ctx, strings.TrimSpace(url), msg); err != nil {
					logr.Warn("failed to post storage recovery alert", zap.String("store", store), zap.Error(err))
				}
			}
		}()
	})
}
