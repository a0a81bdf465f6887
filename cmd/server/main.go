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

	_ "vidhub/internal/domain/comment"
	_ "vidhub/internal/domain/moderation"
	_ "vidhub/internal/domain/reaction"
	_ "vidhub/internal/domain/subscription"
	_ "vidhub/internal/domain/user"
	_ "vidhub/internal/domain/video"
	"vidhub/internal/pkg/config"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/uploader"
	"vidhub/internal/pkg/worker"
	"vidhub/pkg/cache"
	"vidhub/pkg/database"
	"vidhub/pkg/logger"
	"vidhub/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// 1. 加载配置
	config.LoadConfig()
	cfg := config.GlobalConfig

	// 2. 初始化日志
	if err := logger.InitLogger(cfg.App.Env); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. 初始化数据库与 Redis
	db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	// 4. 基础设施
	store, err := uploader.NewUploader(cfg.OSS)
	if err != nil {
		logger.Log.Fatal("Failed to init object storage", zap.Error(err))
	}
	publisher, err := events.New(cfg.MQ.URL, cfg.MQ.Exchange, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to connect message broker", zap.Error(err))
	}
	defer publisher.Close()

	mc := metrics.NewMetricsCollector(prometheus.DefaultRegisterer)
	pool := worker.NewWorkerPool(logger.Log, cfg.Worker.Num, cfg.Worker.BufferSize, cfg.Worker.MaxRetry,
		worker.WithDeadLetter(func(task worker.Task, err error) {
			mc.RecordFanoutRetry("dead")
		}),
	)
	pool.Start()
	defer pool.Stop()

	// 5. 路由与模块
	r, err := setupRouter(cfg, Deps{
		DB:       db,
		Redis:    rdb,
		Cache:    cache.NewRedisCache(rdb, cfg.App.Env),
		Uploader: store,
		Events:   publisher,
		Workers:  pool,
		Metrics:  mc,
		Logger:   logger.Log,
	})
	if err != nil {
		logger.Log.Fatal("Failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Log.Info("Server exited")
}
