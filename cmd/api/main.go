package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/physiodoc/physiodoc-api/internal/config"
	"github.com/physiodoc/physiodoc-api/internal/email"
	documentHandler "github.com/physiodoc/physiodoc-api/internal/handler/document"
	healthHandler "github.com/physiodoc/physiodoc-api/internal/handler/health"
	patientHandler "github.com/physiodoc/physiodoc-api/internal/handler/patient"
	templateHandler "github.com/physiodoc/physiodoc-api/internal/handler/template"
	"github.com/physiodoc/physiodoc-api/internal/middleware"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	"github.com/physiodoc/physiodoc-api/internal/repository/postgres"
	"github.com/physiodoc/physiodoc-api/internal/router"
	documentService "github.com/physiodoc/physiodoc-api/internal/service/document"
	exportService "github.com/physiodoc/physiodoc-api/internal/service/export"
	patientService "github.com/physiodoc/physiodoc-api/internal/service/patient"
	templateService "github.com/physiodoc/physiodoc-api/internal/service/template"
	"github.com/physiodoc/physiodoc-api/pkg/logger"
	"github.com/physiodoc/physiodoc-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	patientRepo := postgres.NewPatientRepository(db)
	templateRepo := repository.NewCachedTemplateRepository(
		postgres.NewTemplateRepository(db),
		5*time.Minute,
		15*time.Minute,
	)
	documentRepo := postgres.NewDocumentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	appMetrics := metrics.NewMetrics("physiodoc", "api")

	patientSvc := patientService.NewService(patientRepo)
	templateSvc := templateService.NewService(templateRepo)
	documentSvc := documentService.NewService(documentRepo, templateRepo, patientRepo, outboxRepo, appLogger)
	exportSvc := exportService.NewServiceWithMailer(
		documentRepo, templateRepo, patientRepo, outboxRepo,
		email.NewService(cfg.Email),
		appLogger, appMetrics,
	)

	r := router.NewRouter(
		healthHandler.NewHandler(db),
		patientHandler.NewHandler(patientSvc, exportSvc),
		templateHandler.NewHandler(templateSvc),
		documentHandler.NewHandler(documentSvc, exportSvc),
		router.Config{
			RateLimit:     rate.Limit(100),
			RateBurst:     200,
			CORSConfig:    middleware.DefaultCORSConfig(),
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MetricsPrefix: "physiodoc",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("Server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
