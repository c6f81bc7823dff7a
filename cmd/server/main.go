package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portalpos/internal/config"
	"portalpos/internal/infra"
	"portalpos/internal/repository"
	"portalpos/internal/router"
	"portalpos/internal/service"
	"portalpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker handlers are wired here (composition root) so that the pool has
	// full access to all infrastructure dependencies.
	notificador := infra.NewNotificador(cfg.NotificadorURL)
	notificadorCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)

	workerHandlers := &worker.WorkerHandlers{
		Alerta: worker.NewAlertaWorker(notificador, notificadorCB, mailer),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Services are built once here and shared between the HTTP surface and
	// the auto-close scheduler, so both go through the same per-caja locks.
	configRepo := repository.NewSedeConfigRepository(db)
	configSvc := service.NewConfigService(configRepo, rdb, cfg.DefaultTimezone)
	ventasSvc := service.NewVentasService(repository.NewVentasRepository(db))
	cajaSvc := service.NewCajaService(
		repository.NewCajaRepository(db),
		repository.NewCierreRepository(db),
		ventasSvc,
		configSvc,
		worker.NewDispatcher(rdb),
	)
	worker.StartAutoCierre(ctx, worker.AutoCierreConfig{
		ConfigRepo: configRepo,
		Cajas:      cajaSvc,
		DefaultTZ:  cfg.DefaultTimezone,
	})

	r := router.New(cfg, db, rdb, notificadorCB, router.Services{
		Caja:   cajaSvc,
		Ventas: ventasSvc,
		Config: configSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("portalpos caja backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
