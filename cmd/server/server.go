// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/artmarket-backend/internal/cache"
	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/database"
	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/middleware"
	"github.com/javajoker/artmarket-backend/internal/mq"
	"github.com/javajoker/artmarket-backend/internal/realtime"
	"github.com/javajoker/artmarket-backend/internal/router"
	"github.com/javajoker/artmarket-backend/internal/services"
	"github.com/javajoker/artmarket-backend/internal/storage"
)

var seedOnStart bool

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the marketplace API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().BoolVar(&seedOnStart, "seed", false, "create demo data before serving")
}

func runServer(ctx context.Context, cfg *config.Config) error {
	// Initialize database
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if seedOnStart {
		if err := database.SeedInitialData(db); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	store, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	queue, err := mq.NewFromConfig(ctx, cfg.Broker)
	if err != nil {
		return err
	}
	defer queue.Close()

	var searchCache cache.Cache
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			// Search still works uncached.
			logrus.WithError(err).Warn("Redis unavailable, artwork search is not cached")
		} else {
			searchCache = redisCache
			defer redisCache.Close()
		}
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// Relay offer events from the broker to websocket clients.
	go func() {
		relay := services.NewNotificationService(queue)
		counter := services.NewOfferService(db, store, nil)
		if err := relay.RunRelay(ctx, hub, counter); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Notification relay stopped")
		}
	}()

	var limits *middleware.RateLimits
	if cfg.RateLimit.Enabled {
		limits = middleware.NewRateLimits()
		limits.RunCleanup(ctx)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, router.Dependencies{
		Storage:    store,
		Queue:      queue,
		Hub:        hub,
		Cache:      searchCache,
		RateLimits: limits,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
