package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/baharkarakas/point-service/internal/api"
	"github.com/baharkarakas/point-service/internal/auth"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/db"
	"github.com/baharkarakas/point-service/internal/events"
	"github.com/baharkarakas/point-service/internal/locker"
	"github.com/baharkarakas/point-service/internal/logger"
	"github.com/baharkarakas/point-service/internal/metrics"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/baharkarakas/point-service/internal/repository/memory"
	"github.com/baharkarakas/point-service/internal/repository/postgres"
	"github.com/baharkarakas/point-service/internal/services"
	"github.com/baharkarakas/point-service/internal/worker"
)

type stores struct {
	balances  repo.Balances
	histories repo.Histories
	tx        repo.TxManager
	auditLogs repo.AuditLogs
	close     func()
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer st.close()

	metrics.Init()

	pub, closePub, err := openPublisher(ctx, cfg, st)
	if err != nil {
		log.Fatal().Err(err).Str("sink", cfg.EventSink).Msg("open event sink")
	}
	defer closePub()

	wp := worker.NewPool(cfg.WorkerCount, cfg.WorkerCount*64, log)

	locks := locker.New[int64](
		locker.WithWaitObserver(metrics.ObserveLockWait),
		locker.WithSizeObserver(metrics.SetLockEntries),
	)
	policy := services.Policy{MinCharge: cfg.MinCharge, MaxBalance: cfg.MaxBalance}

	svc := services.NewTransactionService(st.balances, st.histories, st.tx, locks, policy,
		services.WithLogger(log),
		services.WithPublisher(pub, wp),
	)

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(api.RouterDeps{Cfg: cfg, Log: log, Points: svc, Tokens: tm}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("store", cfg.StoreDriver).
			Str("sink", cfg.EventSink).
			Int64("min_charge", policy.MinCharge).
			Int64("max_balance", policy.MaxBalance).
			Bool("auth_required", cfg.AuthRequired).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// in-flight requests are done; flush pending events before closing sinks
	wp.Stop()
}

func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		r := memory.NewRepositories(memory.WithLatency(cfg.MemoryStoreLatency))
		return stores{r.Balances, r.Histories, r.Tx, r.AuditLogs, func() {}}, nil
	}

	if cfg.Migrate {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return stores{}, err
		}
		log.Info().Msg("migrations applied")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	r := postgres.NewRepositories(pool)
	return stores{r.Balances, r.Histories, r.Tx, r.AuditLogs, pool.Close}, nil
}

func openPublisher(ctx context.Context, cfg config.Config, st stores) (events.Publisher, func(), error) {
	switch cfg.EventSink {
	case config.SinkRedis:
		client, err := events.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, 0)
		if err != nil {
			return nil, nil, err
		}
		return events.NewRedisPublisher(client, cfg.EventsStream), func() { _ = client.Close() }, nil
	case config.SinkAudit:
		return events.NewAuditPublisher(st.auditLogs), func() {}, nil
	default:
		return events.Nop{}, func() {}, nil
	}
}
