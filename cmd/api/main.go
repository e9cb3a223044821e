package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gsh519/wedding-snap/api/swagger"
	"github.com/gsh519/wedding-snap/internal/handler"
	"github.com/gsh519/wedding-snap/internal/middleware"
	"github.com/gsh519/wedding-snap/internal/repository"
	"github.com/gsh519/wedding-snap/internal/service"
	"github.com/gsh519/wedding-snap/pkg/cache"
	"github.com/gsh519/wedding-snap/pkg/config"
	"github.com/gsh519/wedding-snap/pkg/database"
	"github.com/gsh519/wedding-snap/pkg/jobs"
	"github.com/gsh519/wedding-snap/pkg/logger"
	"github.com/gsh519/wedding-snap/pkg/mailer"
	corsmiddleware "github.com/gsh519/wedding-snap/pkg/middleware/cors"
	reqidmiddleware "github.com/gsh519/wedding-snap/pkg/middleware/requestid"
	"github.com/gsh519/wedding-snap/pkg/storage"
)

// @title Wedding Snap API
// @version 1.0.0
// @description Photo sharing for weddings: guest uploads, album sharing and bulk downloads
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	objectStore, err := storage.NewObjectStore(ctx, cfg.S3)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object store", "error", err)
	}

	mailClient, err := mailer.New(cfg.SMTP)
	if err != nil {
		logr.Sugar().Fatalw("failed to init mailer", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	deleteLogRepo := repository.NewMediaDeleteLogRepository(db)
	jobRepo := repository.NewDownloadJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	shareCardSvc := service.NewShareCardService(cfg.BaseURL, logr)
	albumSvc := service.NewAlbumService(albumRepo, cacheRepo, cfg.Albums, logr)
	mediaSvc := service.NewMediaService(mediaRepo, albumRepo, deleteLogRepo, objectStore, cfg.Albums, logr)

	exportCfg := service.ExportConfig{
		BatchSize:         cfg.Exports.BatchSize,
		MaxRetries:        cfg.Exports.MaxRetries,
		RetentionWindow:   cfg.Exports.RetentionWindow,
		FreeDownloadLimit: cfg.Albums.FreeDownloadLimit,
		DownloadBase:      cfg.BaseURL + cfg.APIPrefix,
	}

	builder := service.NewArchiveBuilder(objectStore, logr)

	var queue *jobs.Queue
	retry := service.NewRetryController(jobRepo, queueRef(&queue), cfg.Exports.MaxRetries, metricsSvc, logr)
	worker := service.NewExportWorker(jobRepo, albumRepo, mediaRepo, userRepo, builder, retry, mailClient, exportCfg, metricsSvc, logr)
	queue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		BufferSize: cfg.Exports.QueueBuffer,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	exportSvc := service.NewExportService(jobRepo, albumRepo, objectStore, queue, exportCfg, logr)
	if err := exportSvc.RecoverPendingJobs(ctx, 100); err != nil {
		logr.Sugar().Errorw("failed to recover pending export jobs", "error", err)
	}

	reaper := service.NewReaper(jobRepo, albumRepo, mediaRepo, deleteLogRepo, objectStore, service.ReaperConfig{
		Interval:         cfg.Exports.ReaperInterval,
		RetentionWindow:  cfg.Exports.RetentionWindow,
		MediaGracePeriod: cfg.Albums.MediaGracePeriod,
	}, metricsSvc, logr)
	reaper.Start(ctx)

	// Handlers.
	albumHandler := handler.NewAlbumHandler(albumSvc, mediaSvc, shareCardSvc)
	mediaHandler := handler.NewMediaHandler(mediaSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public guest routes keyed by the unguessable slug or secret token.
	api.GET("/public/albums/:slug", albumHandler.PublicAlbum)
	api.POST("/public/albums/:slug/media", mediaHandler.Register)
	api.GET("/export/:token/:index", exportHandler.Download)

	// Owner routes.
	owner := api.Group("", middleware.JWT(authSvc))
	owner.POST("/albums", albumHandler.Create)
	owner.GET("/albums", albumHandler.List)
	owner.GET("/albums/:id", albumHandler.Get)
	owner.GET("/albums/:id/media", albumHandler.Media)
	owner.GET("/albums/:id/share-card", albumHandler.ShareCard)
	owner.POST("/albums/:id/export", exportHandler.Create)
	owner.GET("/albums/:id/export/latest", exportHandler.Latest)
	owner.DELETE("/albums/:id/media/:mediaId", mediaHandler.Delete)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// queueRef defers queue resolution: the worker needs the retry controller
// and the retry controller needs the queue, which is built from the worker.
func queueRef(q **jobs.Queue) enqueuerFunc {
	return func(job jobs.Job) error {
		if *q == nil {
			return fmt.Errorf("queue not initialised")
		}
		return (*q).Enqueue(job)
	}
}

type enqueuerFunc func(jobs.Job) error

func (f enqueuerFunc) Enqueue(job jobs.Job) error { return f(job) }
