package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"giveaway-draw-backend/internal/common/config"
	"giveaway-draw-backend/internal/common/logger"
	"giveaway-draw-backend/internal/common/middleware"
	giveawayhttp "giveaway-draw-backend/internal/features/giveaway/delivery/http"
	giveawayredis "giveaway-draw-backend/internal/features/giveaway/repository/redis"
	giveawayservice "giveaway-draw-backend/internal/features/giveaway/service"
	ledgerhttp "giveaway-draw-backend/internal/features/ledger/delivery/http"
	ledgerredis "giveaway-draw-backend/internal/features/ledger/repository/redis"
	ledgerservice "giveaway-draw-backend/internal/features/ledger/service"
	platformredis "giveaway-draw-backend/internal/platform/redis"
	"giveaway-draw-backend/internal/service/notifications"
)

const serviceName = "giveaway-draw-backend"

func main() {
	cfg := config.Load()

	logger.Init(serviceName, cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting giveaway draw backend")

	loc, err := time.LoadLocation(cfg.Draw.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Draw.Timezone).Msg("Invalid draw timezone")
	}

	redisClient, err := platformredis.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	ledgerRepository := ledgerredis.NewRedisLedgerRepository(redisClient)
	giveawayRepository := giveawayredis.NewRedisGiveawayRepository(redisClient)

	ledgerSvc := ledgerservice.NewLedgerService(ledgerRepository)
	notifier := notifications.NewNotificationService()
	giveawaySvc := giveawayservice.NewGiveawayService(giveawayRepository, ledgerSvc, notifier, loc, nil)

	sweeper := giveawayservice.NewSweeper(giveawaySvc, cfg.Draw.SweepInterval)
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cutoff sweep")
	}
	defer sweeper.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-User-ID", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	registerHealth(router, redisClient)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(cfg))

	giveawayhttp.NewGiveawayHandler(giveawaySvc).RegisterRoutes(v1)
	ledgerhttp.NewLedgerHandler(ledgerSvc).RegisterRoutes(v1)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func registerHealth(router *gin.Engine, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
