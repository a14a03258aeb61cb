package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairpos/internal/config"
	"repairpos/internal/infra"
	"repairpos/internal/repository"
	"repairpos/internal/router"
	"repairpos/internal/service"
	"repairpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := router.Deps{DB: db, Notifier: service.LogNotifier{}}
	if cfg.NotificationsEnabled {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		dispatcher := worker.NewDispatcher(rdb)
		smsCB := infra.NewCircuitBreaker("sms", infra.DefaultCBConfig())

		// Worker handlers are wired here so the pool sees every infra dependency.
		mailer := infra.NewMailer(cfg)
		var emails worker.EmailEnqueuer
		if mailer.Enabled() {
			emails = dispatcher
		}
		pool := worker.NewPool(rdb)
		pool.Handle(worker.QueueNotifications, worker.JobRepairStatus, worker.NewNotificationWorker(
			repository.NewRepairRepository(db),
			infra.NewSMSClient(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSender),
			smsCB,
			emails,
			cfg.ShopName,
		))
		pool.Handle(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer))
		pool.Start(ctx, cfg.WorkerPoolSize)

		worker.StartRedriveCron(ctx, worker.RedriveConfig{RDB: rdb, Queue: worker.QueueNotifications, Interval: cfg.DLQRedriveInterval, CB: smsCB})
		worker.StartRedriveCron(ctx, worker.RedriveConfig{RDB: rdb, Queue: worker.QueueEmail, Interval: cfg.DLQRedriveInterval})

		deps.RDB, deps.Notifier, deps.SMSBreaker = rdb, dispatcher, smsCB
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(ctx, cfg, deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("repairpos listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
