package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/docpipe/doc-chunk-service/api"
	"github.com/docpipe/doc-chunk-service/api/handler"
	"github.com/docpipe/doc-chunk-service/api/middleware"
	appconfig "github.com/docpipe/doc-chunk-service/config"
	"github.com/docpipe/doc-chunk-service/internal/cache"
	"github.com/docpipe/doc-chunk-service/internal/database"
	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/repository"
	"github.com/docpipe/doc-chunk-service/internal/services"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
	"github.com/docpipe/doc-chunk-service/pkg/taskqueue"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to config file")
		mode       = flag.String("mode", "release", "run mode (debug/release)")
	)
	flag.Parse()

	// A local .env is optional; environment wins over it either way.
	_ = godotenv.Load()

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(*mode)

	logger := setupLogger(cfg.Log)
	logger.Info("Starting document chunk service...")

	if err := setupDatabase(cfg.Database, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	fileStorage, err := setupStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	chunkCache, err := setupCache(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	repo := repository.NewDocumentRepository()
	statusManager := services.NewDocumentStatusManager(repo, logger)

	splitterCfg := document.SplitterConfig{
		SplitType:    document.SplitType(cfg.Document.SplitType),
		ChunkSize:    cfg.Document.ChunkSize,
		ChunkOverlap: cfg.Document.ChunkOverlap,
	}

	documentServiceOptions := []services.DocumentOption{
		services.WithDocumentRepository(repo),
		services.WithStatusManager(statusManager),
		services.WithSplitterConfig(splitterCfg),
		services.WithLogger(logger),
	}

	// With the queue enabled, uploads are processed by asynq workers instead
	// of inline.
	var queue taskqueue.Queue
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		queue, worker, err = setupTaskQueue(cfg.Queue, fileStorage, repo, statusManager, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		defer worker.Stop()

		documentServiceOptions = append(documentServiceOptions,
			services.WithTaskQueue(queue),
			services.WithAsyncProcessing(true),
		)
		logger.Info("Task queue initialized, document processing runs async")
	}

	documentService := services.NewDocumentService(fileStorage, documentServiceOptions...)
	if err := documentService.Init(); err != nil {
		logger.Fatalf("Failed to initialize document service: %v", err)
	}

	chunkService := services.NewChunkService(chunkCache,
		services.WithChunkLogger(logger),
		services.WithChunkCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second),
	)

	docHandler := handler.NewDocumentHandler(documentService, fileStorage)
	chunkHandler := handler.NewChunkHandler(chunkService)

	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	router := api.SetupRouter(docHandler, chunkHandler, taskHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configures the shared logger, adding rotating file output when
// a log file is configured.
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupDatabase opens the metadata database and runs migrations.
func setupDatabase(cfg appconfig.DatabaseConfig, logger *logrus.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	return database.Setup(&database.Config{
		Type: cfg.Type,
		DSN:  cfg.DSN,
	}, logger)
}

// setupStorage creates the configured file storage backend.
func setupStorage(cfg appconfig.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		return storage.NewLocalStorage(storage.LocalConfig{Path: cfg.Path})
	}
}

// setupCache creates the chunk memoization cache. Disabled caching returns
// nil so the chunk service skips memoization entirely.
func setupCache(cfg appconfig.CacheConfig) (cache.Cache, error) {
	if !cfg.Enable {
		return nil, nil
	}

	cacheConfig := cache.Config{
		Type:            cfg.Type,
		DefaultTTL:      time.Duration(cfg.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}
	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupTaskQueue creates the redis queue and starts a worker running the
// document pipeline handler.
func setupTaskQueue(
	cfg appconfig.QueueConfig,
	fileStorage storage.Storage,
	repo repository.DocumentRepository,
	statusManager *services.DocumentStatusManager,
	logger *logrus.Logger,
) (taskqueue.Queue, taskqueue.Worker, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   cfg.Concurrency,
		RetryLimit:    cfg.RetryLimit,
		RetryDelay:    time.Duration(cfg.RetryDelay) * time.Second,
	}

	queue, err := taskqueue.NewRedisQueue(queueConfig)
	if err != nil {
		return nil, nil, err
	}

	worker := taskqueue.NewRedisWorker(queue, queueConfig)
	worker.RegisterHandler(services.NewPipelineHandler(
		fileStorage, repo, statusManager, queue, logger))

	if err := worker.Start(); err != nil {
		queue.Close()
		return nil, nil, fmt.Errorf("failed to start task worker: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.Concurrency,
	}).Info("Task worker started")

	return queue, worker, nil
}
