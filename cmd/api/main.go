package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/delordemm1/realestate-api/internal/cache"
	"github.com/delordemm1/realestate-api/internal/config"
	"github.com/delordemm1/realestate-api/internal/database"
	"github.com/delordemm1/realestate-api/internal/middleware"
	"github.com/delordemm1/realestate-api/internal/modules/property"
	"github.com/delordemm1/realestate-api/internal/modules/user"
	"github.com/delordemm1/realestate-api/internal/notification"
	"github.com/delordemm1/realestate-api/internal/notification/templates"
	"github.com/delordemm1/realestate-api/internal/server"
	"github.com/delordemm1/realestate-api/internal/session"
	"github.com/delordemm1/realestate-api/internal/token"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on (defaults to SERVER_PORT)" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Use a structured logger
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)
		if cfg.JWT.Secret == "" {
			logger.Error("JWT_SECRET must be set")
			os.Exit(1)
		}

		// --- Database & Cache ---
		ctx := context.Background()
		dbPool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully connected to postgres database")
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully connected to redis")
		locker := cache.NewRedisLocker(redisClient, "realestate:")

		// --- Notifications ---
		notifier := notification.NewService(logger, notification.NewEmailSender(cfg.SMTP, logger))
		tmpl := templates.NewEngine(templates.Config{Dir: cfg.Templates.Dir, Reload: cfg.Templates.Reload}, logger)

		// --- Auth ---
		sessions := session.NewPostgresProvider(dbPool, session.Config{
			SlidingTTL:  time.Duration(cfg.Session.SlidingTTLHours) * time.Hour,
			AbsoluteTTL: time.Duration(cfg.Session.AbsoluteTTLHours) * time.Hour,
		})
		tokens := token.NewIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)
		auth := middleware.Authenticate(tokens, sessions, logger)

		// --- Module Initialization (Bottom-Up) ---

		// User Module
		userService := user.NewService(&user.Config{
			Repo:      user.NewRepository(dbPool),
			Logger:    logger,
			Config:    cfg,
			Notifier:  notifier,
			Templates: tmpl,
			Sessions:  sessions,
			Tokens:    tokens,
			Locker:    locker,
		})
		userHandler := user.NewHandler(userService, logger, auth)

		// Property Module
		propertyService := property.NewService(property.NewRepository(dbPool), logger, nil)
		propertyHandler := property.NewHandler(propertyService, logger, auth)

		router := server.New(cfg, logger, userHandler, propertyHandler)

		addr := ":" + cfg.Server.Port
		if options.Port != 0 {
			addr = fmt.Sprintf(":%d", options.Port)
		}
		srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
		hooks.OnStart(func() {
			logger.Info("starting server", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("server failed to start", "error", err)
				os.Exit(1)
			}
		})
		// Hooks keep a single stop callback, so shutdown happens in one place.
		hooks.OnStop(func() {
			_ = srv.Close()
			_ = redisClient.Close()
			dbPool.Close()
		})
	})
	cli.Run()
}
