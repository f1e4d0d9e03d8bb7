package main

import (
	"os"
	"os/signal"
	"syscall"

	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/jobs"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/repository"
	"cinebook/internal/service"
)

// Standalone sweeper process for deployments that scale the API
// horizontally and want a single expiration loop.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	repos := repository.NewRepositories(db)
	sweeper := service.NewSweeperService(repos.Bookings, natsClient, cfg.HoldTTL)

	job := jobs.NewBookingExpirationJob(sweeper, cfg.SweepInterval)
	job.Start()
	defer job.Stop()

	log.Info("Expiration worker running", "interval", cfg.SweepInterval, "hold_ttl", cfg.HoldTTL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Worker stopped")
}
