package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/printshop/internal/api"
	"github.com/example/printshop/internal/catalog"
	"github.com/example/printshop/internal/command"
	"github.com/example/printshop/internal/config"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/infrastructure/kafka"
	"github.com/example/printshop/internal/infrastructure/store"
	"github.com/example/printshop/internal/observability"
	"github.com/example/printshop/internal/query"
	"github.com/example/printshop/internal/repository"
	"github.com/example/printshop/internal/session"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[storefront] %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[storefront] failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		zap.Int("materials", len(cat.Materials())),
		zap.Int("products", len(cat.Products())))

	cartStore, closeStore, err := openCartStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher command.EventPublisher = command.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing cart events",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	} else {
		logger.Info("KAFKA_BROKERS not set, cart events are not published")
	}

	coupons := checkout.DefaultRegistry()
	carts := repository.NewCartRepository(cartStore, logger)
	cmdHandler := command.NewHandler(carts, cat, cat, coupons, publisher, logger)
	queryHandler := query.NewHandler(carts, cat, coupons, cfg.Checkout, logger)

	router := api.NewRouter(api.NewHandlers(cmdHandler, queryHandler, logger), api.RouterConfig{
		Issuer:       session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL),
		SecureCookie: cfg.SecureCookie,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openCartStore connects the configured snapshot backend. The returned func releases
// whatever connection the backend holds.
func openCartStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.CartStore, func(), error) {
	noop := func() {}
	closeWith := func(c io.Closer, name string) func() {
		return func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close "+name, zap.Error(err))
			}
		}
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to redis")
		return store.NewRedisCartStore(client, cfg.SessionTTL), closeWith(client, "redis"), nil

	case config.StorePostgres:
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		s := store.NewPostgresCartStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("prepare postgres schema: %w", err)
		}
		logger.Info("connected to postgres")
		return s, closeWith(db, "postgres"), nil

	case config.StoreDynamo:
		client, err := store.NewDynamoClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("create dynamodb client: %w", err)
		}
		logger.Info("using dynamodb", zap.String("table", cfg.DynamoTable))
		return store.NewDynamoCartStore(client, cfg.DynamoTable), noop, nil
	}

	logger.Warn("using in-memory cart store, carts are lost on restart")
	return store.NewMemoryCartStore(), noop, nil
}
