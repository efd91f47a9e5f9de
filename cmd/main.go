package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "customer-directory/docs"
	"customer-directory/internal/api"
	"customer-directory/internal/batch"
	"customer-directory/internal/config"
	"customer-directory/internal/domain/customer"
	"customer-directory/internal/event"
	"customer-directory/internal/infrastructure/database/postgres"
	"customer-directory/internal/infrastructure/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Customer Directory API
// @version 1.0
// @description This is the API documentation for the Customer Directory service.
// @termsOfService http://customer-directory.com/terms/

// @contact.name API Support
// @contact.url http://customer-directory.com/support
// @contact.email support@customer-directory.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	store := initializeStore(cfg, logger)
	defer store.Close()

	publisher := initializePublisher(cfg, logger)
	directoryService := initializeServices(store, publisher, logger)

	probeJob := batch.NewStoreProbeJob(store, logger)
	cronScheduler := startBatchJobs(cfg, logger, probeJob)
	router := api.SetupRouter(directoryService, store, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeStore(cfg *config.Config, logger *slog.Logger) *postgres.Connector {
	logger.Info("Initializing store connector...")
	store := postgres.NewConnector(logger)
	if err := store.Initialize(context.Background(), cfg.Database); err != nil {
		logger.Error("Failed to initialize store connector", "error", err)
		os.Exit(1)
	}
	if !store.Ready() {
		logger.Warn("Store connector is degraded; customer operations will report the store as unavailable until restart with a configured database URL")
	}
	return store
}

func initializePublisher(cfg *config.Config, logger *slog.Logger) event.EventPublisher {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, customer events will be dropped")
		return event.NewNoOpEventPublisher(logger)
	}

	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.Username, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Warn("Failed to connect to RabbitMQ, falling back to no-op publisher", "error", err)
		return event.NewNoOpEventPublisher(logger)
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Warn("Failed to set up RabbitMQ publisher, falling back to no-op publisher", "error", err)
		return event.NewNoOpEventPublisher(logger)
	}
	return publisher
}

func initializeServices(store *postgres.Connector, publisher event.EventPublisher, logger *slog.Logger) customer.DirectoryService {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(store, logger)
	return customer.NewDirectoryService(customerRepo, store, publisher, logger)
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, probeJob *batch.StoreProbeJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.StoreProbeSchedule
	if scheduleSpec == "" {
		scheduleSpec = "@every 1m"
		logger.Warn("Store probe schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.StoreProbeTimeout
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Second
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "StoreProbe")
		jobLogger.Debug("Cron triggered: Running store probe job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := probeJob.Run(ctx); runErr != nil {
			jobLogger.Warn("Store probe job finished with error", slog.Any("error", runErr))
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule store probe job", "schedule", scheduleSpec, slog.Any("error", err))

	} else {
		logger.Info("Scheduled store probe job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
