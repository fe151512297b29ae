package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/handler"
	"github.com/oaib/exam-backend/internal/logger"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/oaib/exam-backend/internal/repository"
	"github.com/oaib/exam-backend/internal/router"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/oaib/exam-backend/internal/validator"
	"github.com/oaib/exam-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting exam backend")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	if cfg.MetricsEnabled {
		metrics.Init()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	editionRepo := repository.NewEditionRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	candidateRepo := repository.NewCandidateRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)

	queue := worker.NewQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	editionService := service.NewEditionService(editionRepo, log)
	questionService := service.NewQuestionService(questionRepo, categoryRepo, log)
	transferService := service.NewTransferService(questionService, questionRepo, log)
	examService := service.NewExamService(examRepo, log)
	sessionService := service.NewExamSessionService(sessionRepo, examRepo, questionRepo, candidateRepo, queue, log)
	notificationService := service.NewNotificationService(notificationRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, editionRepo)
	monitorService := service.NewMonitorService(monitorRepo, examRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Edition:      handler.NewEditionHandler(editionService, log),
		Question:     handler.NewQuestionHandler(questionService, log),
		Transfer:     handler.NewTransferHandler(transferService, cfg.MaxUploadBytes, log),
		Exam:         handler.NewExamHandler(examService, sessionService, log),
		Session:      handler.NewSessionHandler(sessionService, log),
		Notification: handler.NewNotificationHandler(notificationService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Monitor:      handler.NewMonitorHandler(monitorService, log),
		WS:           handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	tabSwitchWorker := worker.NewTabSwitchWorker(pool, rdb, log)
	notificationWorker := worker.NewNotificationWorker(pool, rdb, log)

	workers.Go(func() { tabSwitchWorker.Start(workerCtx) })
	workers.Go(func() { notificationWorker.Start(workerCtx) })

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; each flushes or drains its queue before returning.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
