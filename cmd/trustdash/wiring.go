package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	avatarmemory "trustdash/internal/avatar/adapters/memory"
	avatarmetrics "trustdash/internal/avatar/metrics"
	avatarports "trustdash/internal/avatar/ports"
	avatarservice "trustdash/internal/avatar/service"
	"trustdash/internal/dashboard"
	"trustdash/internal/gateway"
	"trustdash/internal/platform/config"
	platformmetrics "trustdash/internal/platform/metrics"
	"trustdash/internal/platform/postgres"
	redisclient "trustdash/internal/platform/redis"
	ratelimitmw "trustdash/internal/ratelimit/middleware"
	ratelimitmodels "trustdash/internal/ratelimit/models"
	"trustdash/internal/ratelimit/store/bucket"
	httptransport "trustdash/internal/transport/http"
	cacheledger "trustdash/internal/trust/adapters/cache"
	memoryledger "trustdash/internal/trust/adapters/memory"
	postgresledger "trustdash/internal/trust/adapters/postgres"
	rpcledger "trustdash/internal/trust/adapters/rpc"
	trustmetrics "trustdash/internal/trust/metrics"
	"trustdash/internal/trust/ports"
	trustservice "trustdash/internal/trust/service"
	"trustdash/internal/trust/store"
	"trustdash/internal/wallet"
	"trustdash/pkg/platform/audit"
	"trustdash/pkg/platform/audit/publisher"
	kafkasink "trustdash/pkg/platform/audit/store/kafka"
	auditmemory "trustdash/pkg/platform/audit/store/memory"
	auditpostgres "trustdash/pkg/platform/audit/store/postgres"
)

// moduleMetrics registers collectors globally, so it is built once per process.
type moduleMetrics struct {
	http    *platformmetrics.Metrics
	trust   *trustmetrics.Metrics
	avatar  *avatarmetrics.Metrics
	gateway *gateway.Metrics
}

func newModuleMetrics() *moduleMetrics {
	return &moduleMetrics{
		http:    platformmetrics.New(),
		trust:   trustmetrics.New(),
		avatar:  avatarmetrics.New(),
		gateway: gateway.NewMetrics(),
	}
}

// stack opens backends lazily and closes them in reverse order.
type stack struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *moduleMetrics

	pg      *postgres.Client
	redis   *redisclient.Client
	gateway *gateway.Client
	checks  map[string]httptransport.HealthChecker
	closers []func()
}

func newStack(cfg *config.Config, logger *slog.Logger, m *moduleMetrics) *stack {
	if m == nil {
		m = &moduleMetrics{}
	}
	return &stack{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		checks:  make(map[string]httptransport.HealthChecker),
	}
}

func (s *stack) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *stack) postgres(ctx context.Context) (*postgres.Client, error) {
	if s.pg != nil {
		return s.pg, nil
	}
	pg, err := postgres.Open(ctx, s.cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	s.pg = pg
	s.checks["postgres"] = pg
	s.closers = append(s.closers, pg.Close)
	return pg, nil
}

func (s *stack) redisClient(ctx context.Context) (*redisclient.Client, error) {
	if s.redis != nil {
		return s.redis, nil
	}
	rc, err := redisclient.New(ctx, s.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, errors.New("redis.url is not configured")
	}
	s.redis = rc
	s.checks["redis"] = rc
	s.closers = append(s.closers, func() { _ = rc.Close() })
	return rc, nil
}

func (s *stack) gatewayClient() (*gateway.Client, error) {
	if s.gateway != nil {
		return s.gateway, nil
	}
	gw, err := gateway.New(s.cfg.Ledger.GatewayURL,
		gateway.WithHTTPClient(&http.Client{Timeout: s.cfg.Ledger.Timeout}),
		gateway.WithLogger(s.logger.With("component", "gateway")),
		gateway.WithMetrics(s.metrics.gateway),
	)
	if err != nil {
		return nil, err
	}
	s.gateway = gw
	return gw, nil
}

// ledger builds the configured trust ledger, wrapped in the snapshot cache
// when one is selected.
func (s *stack) ledger(ctx context.Context) (ports.LedgerPort, error) {
	var (
		ledger ports.LedgerPort
		err    error
	)
	switch s.cfg.Ledger.Backend {
	case "memory":
		ledger = memoryledger.NewLedger()
	case "postgres":
		var pg *postgres.Client
		if pg, err = s.postgres(ctx); err != nil {
			return nil, err
		}
		pgLedger := postgresledger.New(pg.Pool)
		if err = pgLedger.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure trust ledger schema: %w", err)
		}
		ledger = pgLedger
	case "gateway":
		if ledger, err = s.gatewayClient(); err != nil {
			return nil, err
		}
	case "rpc":
		var gw *gateway.Client
		if gw, err = s.gatewayClient(); err != nil {
			return nil, err
		}
		rpcLedger, client, dialErr := rpcledger.Dial(ctx, s.cfg.Ledger.RPCURL,
			rpcledger.WithWriter(gw),
			rpcledger.WithTimeout(s.cfg.Ledger.Timeout),
		)
		if dialErr != nil {
			return nil, dialErr
		}
		s.closers = append(s.closers, client.Close)
		ledger = rpcLedger
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", s.cfg.Ledger.Backend)
	}

	var snapshots store.SnapshotStore
	switch s.cfg.Cache.Backend {
	case "none":
		return ledger, nil
	case "memory":
		snapshots = store.NewInMemoryStore(s.cfg.Cache.TTL)
	case "redis":
		rc, err := s.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		snapshots = store.NewRedisStore(rc.Client, s.cfg.Cache.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", s.cfg.Cache.Backend)
	}
	return cacheledger.New(ledger, snapshots,
		cacheledger.WithMetrics(s.metrics.trust),
		cacheledger.WithLogger(s.logger.With("component", "snapshot_cache")),
	)
}

// auditPublisher builds the configured audit store behind a publisher.
func (s *stack) auditPublisher(ctx context.Context) (*publisher.Publisher, error) {
	var st audit.Store
	switch s.cfg.Audit.Backend {
	case "memory":
		st = auditmemory.NewInMemoryStore()
	case "postgres":
		pg, err := s.postgres(ctx)
		if err != nil {
			return nil, err
		}
		pgStore := auditpostgres.New(pg.DB)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure audit schema: %w", err)
		}
		st = pgStore
	case "kafka":
		client, err := kafkasink.NewClient(s.cfg.Audit.Brokers, s.cfg.Audit.Topic)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		if err := kafkasink.EnsureTopic(ctx, client, s.cfg.Audit.Topic, 1); err != nil {
			return nil, err
		}
		if st, err = kafkasink.NewSink(client, s.cfg.Audit.Topic, auditmemory.NewInMemoryStore()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown audit backend %q", s.cfg.Audit.Backend)
	}

	opts := []publisher.Option{
		publisher.WithLogger(s.logger.With("component", "audit")),
		publisher.WithAsyncBuffer(s.cfg.Audit.AsyncBuffer),
	}
	if s.cfg.Audit.SampleRate < 1 {
		opts = append(opts, publisher.WithSampler(publisher.NewSampler(s.cfg.Audit.SampleRate)))
	}
	pub := publisher.NewPublisher(st, opts...)
	s.closers = append(s.closers, pub.Close)
	return pub, nil
}

// rateLimiter returns nil when rate limiting is disabled.
func (s *stack) rateLimiter(ctx context.Context) (*ratelimitmw.Middleware, error) {
	rl := s.cfg.RateLimit
	if !rl.Enabled {
		return nil, nil
	}
	var buckets ratelimitmw.BucketStore
	switch rl.Backend {
	case "memory":
		buckets = bucket.NewInMemoryBucketStore()
	case "redis":
		rc, err := s.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		buckets = bucket.NewRedisBucketStore(rc.Client)
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", rl.Backend)
	}
	return ratelimitmw.New(buckets, s.logger.With("component", "ratelimit"),
		ratelimitmw.WithLimit(ratelimitmodels.ClassRead, ratelimitmw.Limit{Requests: rl.Reads, Window: rl.Window}),
		ratelimitmw.WithLimit(ratelimitmodels.ClassWrite, ratelimitmw.Limit{Requests: rl.Writes, Window: rl.Window}),
	), nil
}

// avatarHub talks to the gateway whenever one is configured.
func (s *stack) avatarHub() (avatarports.AvatarPort, error) {
	if s.cfg.Ledger.GatewayURL == "" {
		return avatarmemory.NewHub(), nil
	}
	return s.gatewayClient()
}

func (s *stack) walletReader(ctx context.Context) (wallet.BalanceReader, error) {
	switch s.cfg.Wallet.Backend {
	case "static":
		wei, ok := new(big.Int).SetString(s.cfg.Wallet.StaticBalanceWei, 10)
		if !ok {
			return nil, fmt.Errorf("wallet.static_balance_wei is not a decimal integer: %q", s.cfg.Wallet.StaticBalanceWei)
		}
		return wallet.NewStaticReader(wei), nil
	case "rpc":
		client, err := wallet.Dial(ctx, s.cfg.Wallet.RPCURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown wallet backend %q", s.cfg.Wallet.Backend)
	}
}

// services is the fully wired application.
type services struct {
	trust     *trustservice.Service
	avatar    *avatarservice.Service
	wallet    *wallet.Service
	dashboard *dashboard.Service
}

func (s *stack) services(ctx context.Context) (*services, error) {
	ledger, err := s.ledger(ctx)
	if err != nil {
		return nil, fmt.Errorf("build trust ledger: %w", err)
	}
	pub, err := s.auditPublisher(ctx)
	if err != nil {
		return nil, fmt.Errorf("build audit publisher: %w", err)
	}

	trustSvc, err := trustservice.New(ledger,
		trustservice.WithLogger(s.logger.With("component", "trust")),
		trustservice.WithAuditor(pub),
		trustservice.WithMetrics(s.metrics.trust),
	)
	if err != nil {
		return nil, err
	}

	hub, err := s.avatarHub()
	if err != nil {
		return nil, fmt.Errorf("build avatar hub: %w", err)
	}
	avatarSvc, err := avatarservice.New(hub,
		avatarservice.WithLogger(s.logger.With("component", "avatar")),
		avatarservice.WithAuditor(pub),
		avatarservice.WithMetrics(s.metrics.avatar),
	)
	if err != nil {
		return nil, err
	}

	reader, err := s.walletReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("build wallet reader: %w", err)
	}
	walletSvc, err := wallet.New(reader, wallet.WithLogger(s.logger.With("component", "wallet")))
	if err != nil {
		return nil, err
	}

	dash, err := dashboard.New(walletSvc, avatarSvc, trustSvc,
		dashboard.WithLogger(s.logger.With("component", "dashboard")),
	)
	if err != nil {
		return nil, err
	}
	return &services{trust: trustSvc, avatar: avatarSvc, wallet: walletSvc, dashboard: dash}, nil
}
