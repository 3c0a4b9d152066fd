package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/api"
	"github.com/patienthjem/bus-scheduling/internal/bustime"
	"github.com/patienthjem/bus-scheduling/internal/config"
	"github.com/patienthjem/bus-scheduling/internal/db"
	"github.com/patienthjem/bus-scheduling/internal/logging"
	redisclient "github.com/patienthjem/bus-scheduling/internal/redis"
	"github.com/patienthjem/bus-scheduling/internal/schedule"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("api-server", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	repo := transport.NewPgRepository(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	resolver := bustime.NewResolver(scheduleRepo, bustime.Rules{
		EligibleHospitals: cfg.BusEligibleHospitals,
		ScheduleAliases:   cfg.BusScheduleAliases,
		AccommodationName: cfg.BusAccommodation,
		Slack:             cfg.BusSlack,
	})
	locker := redisclient.NewRedisAppointmentLocker(rdb, cfg.LockTTL)
	svc := transport.NewService(repo, resolver, locker)

	router := api.NewRouter(api.RouterConfig{
		Service:      svc,
		Repo:         repo,
		ScheduleRepo: scheduleRepo,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server error")
	case <-rootCtx.Done():
	}

	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
}
