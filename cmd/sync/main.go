// Batch entry point: runs one full registry synchronization cycle and exits.
// Typically scheduled via cron alongside the long-running api service.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"adaptt/internal/config"
	"adaptt/internal/db"
	"adaptt/internal/detector"
	"adaptt/internal/mq"
	"adaptt/internal/repository"
	"adaptt/internal/service"
	"adaptt/internal/source"
	"adaptt/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting adaptt sync...",
		zap.String("source_url", cfg.Source.BaseURL),
	)

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()
	if err := db.InitSchema(initCtx, dbConn); err != nil {
		logger.Fatal("Schema initialization failed", zap.Error(err))
	}

	publisher, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ producer", zap.Error(err))
	}
	defer publisher.Close()

	projectRepo := repository.NewProjectRepository(dbConn)
	documentRepo := repository.NewDocumentRepository(dbConn)
	locationRepo := repository.NewLocationRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)

	syncService := service.NewSyncService(
		source.NewClient(cfg.Source.BaseURL, logger),
		projectRepo,
		documentRepo,
		locationRepo,
		auditRepo,
		detector.New(auditRepo, logger),
		publisher,
		logger,
	)

	if err := syncService.RunFullSync(context.Background()); err != nil {
		logger.Fatal("Synchronization failed", zap.Error(err))
	}
}
