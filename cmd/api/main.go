package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinebook/internal/api"
	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/handlers"
	"cinebook/internal/jobs"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/repository"
	"cinebook/internal/service"
	"cinebook/internal/validation"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	if len(os.Args) > 1 && os.Args[1] == "validate" {
		baseURL := "http://localhost:" + cfg.Port
		if len(os.Args) > 2 {
			baseURL = os.Args[2]
		}
		if err := validation.NewValidator(baseURL).Run(); err != nil {
			logger.Fatal("Validation failed", "error", err)
		}
		log.Info("Validation passed")
		return
	}

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

	var cacheClient *cache.Client
	if cfg.Cache.Enabled {
		cacheClient, err = cache.NewClient(cfg.Cache)
		if err != nil {
			// Cache is an optimization; boot without it.
			log.Warn("Cache unavailable, continuing without it", "error", err)
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	catalogClient := external.NewCatalogClient(cfg.Catalog)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, paymentClient, catalogClient, service.Policy{
		HoldTTL:  cfg.HoldTTL,
		Currency: cfg.Currency,
	})

	expirationJob := jobs.NewBookingExpirationJob(services.Sweeper, cfg.SweepInterval)
	expirationJob.Start()
	defer expirationJob.Stop()

	h := handlers.New(services, paymentClient, cacheClient)
	server := api.NewServer(cfg, db, h)
	httpServer := server.HTTPServer(cfg)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	log.Info("Server stopped")
}
