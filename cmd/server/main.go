package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"log/slog"

	"github.com/plaza-world/plaza/internal/admin"
	"github.com/plaza-world/plaza/internal/factory"
	"github.com/plaza-world/plaza/internal/server"
	redisstorage "github.com/plaza-world/plaza/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		logger.Error("ADMIN_TOKEN is required")
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keep the moderation cache fresh against out-of-band storage writes
	go app.Moderation.Run(ctx)

	// Game endpoint: the websocket handler stays outside the admin
	// middleware chain so the upgrade hijack is untouched
	wsHandler := server.NewWSHandler(app.Processor, app.Sessions, app.Moderation, logger)

	adminRouter := admin.NewRouter(admin.RouterConfig{
		Logger:     logger,
		Token:      adminToken,
		Moderation: app.Moderation,
		Processor:  app.Processor,
		Auth:       app.Auth,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/admin/", adminRouter)

	serverConfig := server.DefaultConfig()
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			serverConfig.Port = p
		}
	}
	srv := server.New(mux, serverConfig, logger)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("server started", slog.String("addr", srv.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
