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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/app"
	"github.com/tutorium/sessions/internal/config"
	"github.com/tutorium/sessions/internal/events"
	"github.com/tutorium/sessions/internal/repository"
	"github.com/tutorium/sessions/internal/service"
	transport "github.com/tutorium/sessions/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting session service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("sweep_interval", cfg.SweepInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	sessionRepo := repository.NewSessionRepository(pool)
	proposalRepo := repository.NewProposalRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)

	var activity service.ActivitySink
	if cfg.MQURL != "" {
		publisher, err := events.NewPublisher(cfg.MQURL, cfg.MQExchange)
		if err != nil {
			logger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer publisher.Close()
		activity = publisher
	} else {
		activity = events.NewLogSink(logger)
	}

	feedbackService := service.NewFeedbackService(feedbackRepo, logger)
	levelService := service.NewLevelService(sessionRepo, userRepo, logger)
	sessionService := service.NewSessionService(sessionRepo, feedbackService, levelService, activity, logger)
	proposalService := service.NewProposalService(proposalRepo, sessionRepo, userRepo, conversationRepo, activity, logger)
	rescheduleService := service.NewRescheduleService(sessionRepo, logger)
	sweeperService := service.NewSweeperService(sessionRepo, logger)

	scheduler := app.NewScheduler(sweeperService, cfg.SweepInterval, logger)
	scheduler.Start(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	transport.NewHandler(proposalService, sessionService, rescheduleService).Register(router)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	scheduler.Stop()
	sessionService.Wait()
}
