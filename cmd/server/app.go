package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/moveledger/internal/adapter/http"
	"github.com/iho/moveledger/internal/adapter/http/handler"
	"github.com/iho/moveledger/internal/adapter/http/middleware"
	"github.com/iho/moveledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/moveledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/moveledger/internal/adapter/repository/redis"
	"github.com/iho/moveledger/internal/infrastructure/auth"
	"github.com/iho/moveledger/internal/infrastructure/config"
	"github.com/iho/moveledger/internal/infrastructure/eventpublisher"
	"github.com/iho/moveledger/internal/infrastructure/metrics"
	"github.com/iho/moveledger/internal/infrastructure/postgres"
	"github.com/iho/moveledger/internal/infrastructure/redis"
	"github.com/iho/moveledger/internal/usecase"
)

// app is the wired server, ready to be served.
type app struct {
	router      http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	ledger      *usecase.MovementUseCase
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the set of ports one storage driver provides.
type storage struct {
	txManager usecase.TransactionManager
	directory usecase.ClientDirectory
	accounts  usecase.AccountRepository
	movements usecase.MovementRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	seeder    seeder
	ping      handler.Check
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	st, err := openStorage(ctx, cfg, log, m, a)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.SeedFile != "" {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := seed.apply(ctx, st.seeder); err != nil {
			a.close()
			return nil, fmt.Errorf("apply seed: %w", err)
		}
		log.Info().Int("clients", len(seed.Clients)).Msg("seed applied")
	}

	health := handler.NewHealthHandler().WithCheck(cfg.StorageDriver, st.ping)

	var idempotencyStore usecase.IdempotencyStore
	directory := st.directory

	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL})
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		health.WithCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })

		if cfg.DirectoryCacheTTL > 0 {
			directory = usecase.NewCachedDirectory(directory, redisRepo.NewCache(client), cfg.DirectoryCacheTTL).
				WithMetrics(m).
				WithLogger(log)
		}
	}

	a.ledger = usecase.NewMovementUseCase(
		st.txManager,
		directory,
		st.accounts,
		st.movements,
		st.outbox,
		postgresRepo.NewULIDGenerator(),
	).WithMetrics(m).WithLogger(log)
	if st.retrier != nil {
		a.ledger.WithRetrier(st.retrier)
	}

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     &log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})

	routerCfg := httpAdapter.RouterConfig{
		MovementHandler:  handler.NewMovementHandler(a.ledger),
		HealthHandler:    health,
		Logger:           log,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsGatherer:  registry,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
	}

	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		routerCfg.AuthHandler = handler.NewAuthHandler()
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = a.rateLimiter
	}

	a.router = httpAdapter.NewRouter(routerCfg)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics, a *app) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		log.Warn().Msg("using in-memory storage; data is lost on restart")

		return &storage{
			txManager: store,
			directory: store,
			accounts:  store.Accounts(),
			movements: store.Movements(),
			outbox:    store.Outbox(),
			seeder:    memorySeeder{store: store},
			ping:      store.Ping,
		}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	log.Info().Msg("connected to postgres")

	clients := postgresRepo.NewClientDirectory(pool)
	accounts := postgresRepo.NewAccountRepository(pool)

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		directory: clients,
		accounts:  accounts,
		movements: postgresRepo.NewMovementRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		retrier:   postgresRepo.NewRetrier().WithLogger(log).WithMetrics(m),
		seeder:    postgresSeeder{clients: clients, accounts: accounts},
		ping:      pool.Ping,
	}, nil
}
