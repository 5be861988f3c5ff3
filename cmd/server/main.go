package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/cache"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/config"
	cronrunner "github.com/vvmafra/fba-fantasy-app-sub001/internal/cron"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/db"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/handler"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/ledger"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/limits"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/logger"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/ratelimit"
	gormrepository "github.com/vvmafra/fba-fantasy-app-sub001/internal/repository/gorm"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/swap"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/trade"

	_ "github.com/vvmafra/fba-fantasy-app-sub001/docs"
)

// @title           FBA Fantasy Trade API
// @version         0.1.0
// @description     Multi-party trade proposals, responses, execution, and reversal.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	cfgPath := os.Getenv("FBA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FBA_ENV_ONLY"); envOnlyRaw != "" {
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

	redisStore := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := gormrepository.New(dbConn.Gorm)
	assetLedger := ledger.NewGorm()
	limitChecker := &limits.Checker{
		Repo:   store,
		Cache:  redisStore,
		Config: cfg.TradeLimits,
		Logger: logger,
	}
	tradeService := &trade.Service{
		Repo:   store,
		Ledger: assetLedger,
		Limits: limitChecker,
		Logger: logger,
		Config: cfg.TradeLimits,
	}
	swapService := &swap.Service{
		Repo:   store,
		Ledger: assetLedger,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(ratelimit.Middleware(redisStore, cfg.RateLimit, logger))

	jwt := auth.JWT{Secret: []byte(cfg.Auth.Secret), TokenTTL: cfg.Auth.TokenTTL}
	engine.Use(auth.Middleware(jwt, cfg.Auth.Disabled))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	tradeHandler := &handler.TradeHandler{
		Service: tradeService,
		Limits:  limitChecker,
		Logger:  logger,
	}
	tradeHandler.Register(engine)
	swapHandler := &handler.SwapHandler{Service: swapService}
	swapHandler.Register(engine)
	leagueHandler := &handler.LeagueHandler{Repo: store}
	leagueHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		system := auth.Identity{Role: auth.RoleAdmin}
		_, err := cronRunner.Add("deadline-sweep", cfg.Cron.DeadlineSweep, func(ctx context.Context) {
			n, err := tradeService.RejectPendingAfterDeadline(ctx, system)
			if err != nil {
				logger.Warn("cron deadline sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("cron deadline sweep ok", zap.Int("rejected", n))
			}
		})
		if err != nil {
			logger.Fatal("cron schedule invalid", zap.Error(err))
		}
		cronRunner.Start()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if cfg.Cron.Enabled {
		cronRunner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
