package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"adaptt/internal/api"
	"adaptt/internal/config"
	"adaptt/internal/db"
	"adaptt/internal/messaging"
	"adaptt/internal/mq"
	redisclient "adaptt/internal/redis"
	"adaptt/internal/repository"
	"adaptt/internal/service"
	"adaptt/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting adaptt api service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("port", cfg.Server.Port),
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

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduper(rdb, 24*time.Hour)

	publisher, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ producer", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	projectRepo := repository.NewProjectRepository(dbConn)
	documentRepo := repository.NewDocumentRepository(dbConn)
	locationRepo := repository.NewLocationRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	subscriptionRepo := repository.NewSubscriptionRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)

	gateway := messaging.NewTwilioGateway(cfg.Twilio, logger)

	// Background notification dispatcher
	dispatcher := service.NewDispatcher(
		auditRepo,
		subscriptionRepo,
		gateway,
		deduper,
		publisher,
		time.Duration(cfg.Dispatcher.IntervalSeconds)*time.Second,
		cfg.Twilio.WhatsAppContentSID,
		logger,
	)
	dispatcher.Start(context.Background())

	// HTTP API
	router := api.NewRouter(
		api.NewProjectHandler(projectRepo, documentRepo, locationRepo),
		api.NewUserHandler(userRepo, locationRepo),
		api.NewSubscriptionHandler(subscriptionRepo),
		api.NewMessageHandler(gateway),
		cfg.JWT.Secret,
	)
	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down adaptt api service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// let the current dispatch cycle finish its in-flight sends
	dispatcher.Stop(30 * time.Second)

	logger.Info("adaptt api service stopped")
}
