package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-enrollment-wizard/api/swagger"
	"github.com/noah-isme/sma-enrollment-wizard/internal/handler"
	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/repository"
	"github.com/noah-isme/sma-enrollment-wizard/internal/router"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/cache"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/config"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/database"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/jobs"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/logger"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

// @title Enrollment Wizard API
// @version 1.0.0
// @description Four-step student enrollment wizard with saved progress, step guards and review/submit.
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slots, checks, closeSlots, err := openSlots(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open slot storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeSlots()

	metrics := service.NewMetricsService()
	engine := validation.NewEngine()

	files, err := storage.NewLocalStorage(cfg.Submission.Dir)
	if err != nil {
		logr.Fatal("failed to prepare submissions directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
	receipts := service.NewReceiptService(files, signer, cfg.APIPrefix+"/enroll/receipts", metrics, logr)

	// The queue outlives the signal context; serve drains it after the HTTP server stops.
	queue := receipts.NewArtifactQueue(jobs.QueueConfig[models.Submission]{
		Workers:    cfg.Submission.Workers,
		MaxRetries: cfg.Submission.Retries,
		RetryDelay: cfg.Submission.RetryDelay,
	})
	queue.Start(context.Background())
	defer queue.Stop()
	receipts.UseQueue(queue)

	sessions := service.NewSessionService(service.SessionConfig{
		Secret:  cfg.Session.Secret,
		TTL:     cfg.Session.TTL,
		SlotKey: cfg.Storage.SlotKey,
	}, slots, metrics, logr)
	go pruneSessions(ctx, sessions, logr)

	wizard := service.NewWizardService(engine, metrics, logr)
	review := service.NewReviewService(engine, receipts, service.ReviewConfig{Delay: cfg.Submission.Delay}, metrics, logr)

	r := router.New(router.Dependencies{
		Config:   cfg,
		Logger:   logr,
		Sessions: sessions,
		Wizard:   wizard,
		Review:   review,
		Receipts: receipts,
		Metrics:  metrics,
		Checks:   checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logr.Fatal("failed to listen", zap.String("addr", srv.Addr), zap.Error(err))
	}
	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
	if err := serve(ctx, srv, ln, queue, 15*time.Second, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}

// openSlots builds the configured slot driver plus its readiness checks.
func openSlots(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.SlotRepository, map[string]handler.ReadinessCheck, func(), error) {
	noop := func() {}
	checks := map[string]handler.ReadinessCheck{}

	switch cfg.Storage.Driver {
	case "", config.StorageMemory:
		return repository.NewMemorySlotRepository(), checks, noop, nil
	case config.StorageFile:
		repo, err := repository.NewFileSlotRepository(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, noop, err
		}
		return repo, checks, noop, nil
	case config.StorageRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, noop, err
		}
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		closeFn := func() {
			if err := client.Close(); err != nil {
				logr.Warn("close redis", zap.Error(err))
			}
		}
		return repository.NewRedisSlotRepository(client, "wizard:", cfg.Storage.TTL), checks, closeFn, nil
	case config.StoragePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		closeFn := func() {
			if err := db.Close(); err != nil {
				logr.Warn("close postgres", zap.Error(err))
			}
		}
		return repository.NewPostgresSlotRepository(db), checks, closeFn, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func pruneSessions(ctx context.Context, sessions *service.SessionService, logr *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Prune(time.Hour); removed > 0 {
				logr.Debug("pruned idle sessions", zap.Int("removed", removed), zap.Int("active", sessions.Active()))
			}
		}
	}
}
