package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"crossgov/internal/crosschain"
	"crossgov/internal/crosschain/dispatch"
	"crossgov/internal/crosschain/kafkatransport"
	daoservice "crossgov/internal/dao/service"
	daostore "crossgov/internal/dao/store"
	"crossgov/internal/eligibility"
	"crossgov/internal/events"
	"crossgov/internal/fees"
	"crossgov/internal/finalizer"
	"crossgov/internal/platform/config"
	"crossgov/internal/platform/httpserver"
	"crossgov/internal/platform/kafka"
	"crossgov/internal/platform/kafka/consumer"
	"crossgov/internal/platform/logger"
	"crossgov/internal/platform/metrics"
	"crossgov/internal/platform/middleware"
	"crossgov/internal/platform/redis"
	proposalservice "crossgov/internal/proposal/service"
	proposalstore "crossgov/internal/proposal/store"
	httptransport "crossgov/internal/transport/http"
	"crossgov/internal/voting"
	"crossgov/internal/voting/dedup"
	"crossgov/pkg/domain"
)

// dedupRetention bounds how long applied message keys are remembered. Votes
// cannot land after a proposal's window closes, so keys only need to outlive
// the transport's redelivery horizon.
const dedupRetention = 30 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	chainID, err := domain.ParseChainID(cfg.ChainID)
	if err != nil {
		return fmt.Errorf("invalid chain id: %w", err)
	}
	var admin domain.Address
	if cfg.Admin != "" {
		admin, err = domain.ParseAddress(cfg.Admin)
		if err != nil {
			return fmt.Errorf("invalid admin address: %w", err)
		}
	}

	health := map[string]httptransport.HealthChecker{}

	// Storage. Unset backends fall back to in-memory implementations so a
	// single binary serves development and tests.
	var (
		daoStore   daoservice.Store
		propStore  proposalStore
		eventStore events.Store
		ledger     fees.Ledger
		dedupStore dedup.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
		daoStore = daostore.NewPostgresStore(db)
		propStore = proposalstore.NewPostgresStore(db)
		eventStore = events.NewPostgresStore(db)
		ledger = fees.NewPostgresLedger(db)
		health["postgres"] = healthFunc(db.PingContext)
		log.Info("postgres storage enabled")
	} else {
		daoStore = daostore.NewInMemoryStore()
		propStore = proposalstore.NewInMemoryStore()
		eventStore = events.NewInMemoryStore()
		ledger = fees.NewInMemoryLedger()
		log.Warn("postgres not configured, using in-memory storage")
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		dedupStore = dedup.NewRedisStore(rdb.Client, dedupRetention)
		health["redis"] = healthFunc(rdb.Health)
		log.Info("redis dedup store enabled")
	} else {
		dedupStore = dedup.NewInMemoryStore()
		log.Warn("redis not configured, using in-memory dedup store")
	}

	oracle := eligibility.NewInMemoryOracle()
	publisher := events.NewPublisher(eventStore)

	daoSvc := daoservice.NewService(daoStore, ledger, publisher, admin, cfg.CreationFee, log)
	proposalSvc := proposalservice.NewService(propStore, daoSvc, publisher, log)
	votingSvc := voting.NewService(propStore, daoSvc, oracle, dedupStore, publisher, m, log)
	finalizerSvc := finalizer.NewService(propStore, daoSvc, publisher, m, log)
	dispatcher := dispatch.New(proposalSvc, votingSvc, finalizerSvc, m, log)

	// Transport. With brokers configured, envelopes travel over one topic per
	// chain; without, a loopback delivers them straight back to the local
	// dispatcher.
	var (
		transport   crosschain.Transport
		inboundLoop *consumer.Consumer
	)
	kafkaClient, err := kafka.New(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		ownTopic := kafkatransport.Topic(cfg.Kafka.TopicPrefix, chainID)
		if err := kafkaClient.EnsureTopics(context.Background(), 3, ownTopic); err != nil {
			return fmt.Errorf("ensure inbound topic: %w", err)
		}
		transport = kafkatransport.New(kafkaClient, cfg.Kafka.TopicPrefix)
		inbound := kafkatransport.NewInboundHandler(dispatcher, log)
		inboundLoop, err = consumer.New(cfg.Kafka, []string{ownTopic}, inbound, log)
		if err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		health["kafka"] = healthFunc(kafkaClient.Health)
		log.Info("kafka transport enabled", "topic", ownTopic)
	} else {
		transport = crosschain.NewLoopbackTransport(dispatcher, log)
		log.Warn("kafka not configured, cross-chain sends loop back locally")
	}

	sender := crosschain.NewSender(transport, chainID, publisher, m, log)

	handler := httptransport.NewHandler(httptransport.Config{
		DAOs:      daoSvc,
		Proposals: proposalSvc,
		Votes:     votingSvc,
		Finalizer: finalizerSvc,
		Sender:    sender,
		EventLog:  publisher,
		Whitelist: oracle,
		Health:    health,
		Logger:    log,
	})
	server := httpserver.New(cfg.Addr, handler.Routes(middleware.RequireAdmin(cfg.AdminJWTKey, log)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr, "chain_id", chainID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if inboundLoop != nil {
		g.Go(func() error {
			if err := inboundLoop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// proposalStore is the union of the store slices the services consume.
type proposalStore interface {
	proposalservice.Store
	voting.ProposalStore
	finalizer.ProposalStore
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }
