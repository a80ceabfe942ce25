package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"acroparty/config"
	"acroparty/delectus"
	"acroparty/handlers"
	"acroparty/middleware"
	"acroparty/models"
	"acroparty/routes"
	"acroparty/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is fine; the environment itself may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Player{},
		&models.Game{},
		&models.GamePlayer{},
		&models.Round{},
		&models.Answer{},
		&models.Vote{},
		&models.GameResult{},
	)
	if err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}

	redisClient := config.InitRedis(cfg)

	// Services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	acronymService := services.NewAcronymService()
	scoringService := services.NewScoringService()
	notifier := services.NewNotifier(redisClient, logger)
	roundService := services.NewRoundService(db, scoringService, acronymService, notifier, logger)
	gameService, err := services.NewGameService(db, roundService, scoringService, notifier, logger, cfg.CacheSize)
	if err != nil {
		logger.Fatalw("failed to build game service", "error", err)
	}

	// WebSocket hub
	hub := services.NewHub(redisClient, gameService, roundService, logger)

	// Delectus game orchestrator
	processor := delectus.NewProcessor(db, gameService, roundService, logger)
	scheduler := delectus.NewScheduler(db, processor, logger, cfg.TickInterval)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, roundService, cfg.JoinBaseURL)
	roundHandler := handlers.NewRoundHandler(roundService, gameService)

	router := gin.Default()
	router.Use(middleware.CORS())
	routes.SetupRoutes(router, authHandler, gameHandler, roundHandler, hub, authService, gameService, scheduler)

	server := &http.Server{
		Addr:    cfg.BindAddress + ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return hub.Run(ctx)
	})

	group.Go(func() error {
		return scheduler.Run(ctx)
	})

	group.Go(func() error {
		logger.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
	logger.Infow("server stopped")
}
