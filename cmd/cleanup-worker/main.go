package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
	"github.com/patienthjem/bus-scheduling/internal/config"
	"github.com/patienthjem/bus-scheduling/internal/db"
	"github.com/patienthjem/bus-scheduling/internal/logging"
	redisclient "github.com/patienthjem/bus-scheduling/internal/redis"
	"github.com/patienthjem/bus-scheduling/internal/schedule"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("cleanup-worker", cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("retention", cfg.Retention).
		Msg("cleanup-worker starting up")

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

	// Run once at startup
	runOnce(rootCtx, svc, cfg.Retention)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping cleanup worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.Retention)
		}
	}
}

func runOnce(ctx context.Context, svc *transport.Service, retention time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	deleted, err := svc.DeleteExpiredPatients(runCtx, retention)
	if err != nil {
		log.Error().Err(err).Msg("cleanup run error")
		return
	}
	log.Info().Int64("patients_deleted", deleted).Dur("took", time.Since(start)).Msg("cleanup run complete")
}
