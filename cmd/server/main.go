package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/config"
	cronrunner "github.com/angryrobotdeals/mtagent/internal/cron"
	"github.com/angryrobotdeals/mtagent/internal/db"
	"github.com/angryrobotdeals/mtagent/internal/handler"
	"github.com/angryrobotdeals/mtagent/internal/logger"
	"github.com/angryrobotdeals/mtagent/internal/metrics"
	gormrepository "github.com/angryrobotdeals/mtagent/internal/repository/gorm"
	"github.com/angryrobotdeals/mtagent/internal/service"
)

func main() {
	cfgPath := os.Getenv("MT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := service.EnsureAdmin(bootCtx, store, logger); err != nil {
		bootCancel()
		logger.Fatal("admin bootstrap failed", zap.Error(err))
	}
	bootCancel()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	tokenSvc := &service.TokenService{Repo: store, Logger: logger}
	signalSvc := &service.SignalService{Repo: store, Logger: logger, Metrics: m}
	historySvc := &service.HistoryService{Repo: store, Logger: logger, Metrics: m}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	guard := &auth.Guard{Repo: store, Logger: logger, Metrics: m}

	rootHandler := &handler.RootHandler{StartedAt: time.Now()}
	rootHandler.Register(engine)
	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", metrics.Handler())
	}

	authHandler := &handler.AuthHandler{Tokens: tokenSvc, Logger: logger}
	authHandler.Register(engine, guard)
	signalHandler := &handler.SignalHandler{Signals: signalSvc, Tokens: tokenSvc, Logger: logger}
	signalHandler.Register(engine, guard)
	orderHandler := &handler.OrderHandler{History: historySvc, Tokens: tokenSvc, Logger: logger}
	orderHandler.Register(engine, guard)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Retention.Enabled {
		maxAge := cfg.Retention.MaxAge
		_, err := cronRunner.Add(cfg.Retention.Schedule, func(ctx context.Context) {
			n, err := signalSvc.PruneOlderThan(ctx, maxAge)
			if err != nil {
				logger.Warn("signal retention sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("pruned old signals", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register retention failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
