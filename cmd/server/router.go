package main

import (
	"net/http"

	"vidhub/internal/pkg/config"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
	"vidhub/internal/pkg/uploader"
	"vidhub/internal/pkg/worker"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 服务依赖
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Cache    cache.CacheService
	Uploader uploader.Uploader
	Events   events.Publisher
	Workers  *worker.WorkerPool
	Metrics  *metrics.MetricsCollector
	Logger   *zap.Logger
}

func setupRouter(cfg config.Config, deps Deps) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
		ExposeHeaders:    []string{"X-Trace-ID"},
		AllowCredentials: false,
	}))
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctx := &registry.ModuleContext{
		DB:       deps.DB,
		Redis:    deps.Redis,
		Router:   r,
		Cache:    deps.Cache,
		Uploader: deps.Uploader,
		Events:   deps.Events,
		Workers:  deps.Workers,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
		Config:   cfg,
	}
	if err := registry.InitModules(ctx); err != nil {
		return nil, err
	}
	return r, nil
}
