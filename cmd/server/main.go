package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"scheduling-service/internal/app"
	"scheduling-service/internal/config"
	"scheduling-service/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("scheduling-service", slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger("scheduling-service", cfg.LogLevel)

	pool, err := app.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := &app.Store{DB: pool}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	appInstance := &app.App{
		Rules:    store,
		Bookings: store,
		Users:    store,
		Accounts: store,
		Tokens:   &app.TokenIssuer{Secret: []byte(cfg.JWTSecret)},
		Location: cfg.Location,
		Logger:   logger,
		Ping:     pool.Ping,
	}

	if oauthCfg := app.NewGoogleOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL); oauthCfg != nil {
		appInstance.Google = &app.GoogleCalendar{
			Config:   oauthCfg,
			Accounts: store,
			Location: cfg.Location,
			Timeout:  cfg.Google.Timeout,
			Logger:   logger,
		}
		appInstance.Mirror = appInstance.Google
	} else {
		logger.Warn("Google Calendar not configured, bookings will not be mirrored")
	}

	var counter server.Counter = server.NewMemoryCounter()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		counter = server.NewRedisCounter(rdb)
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute, "redis_addr", cfg.Redis.Addr)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), server.RequestID(), server.AccessLog(logger))

	appInstance.RegisterRoutes(router,
		app.AuthMiddleware(appInstance.Tokens, cfg.StaticTokens),
		server.RateLimit(counter, cfg.RateLimitPerMinute, time.Minute, "rl:public", logger),
	)

	if err := server.Run(ctx, router, cfg.Port, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
