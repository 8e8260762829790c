package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/config"
	"github.com/openprint/marketplace-indexer/internal/logger"
	"github.com/openprint/marketplace-indexer/internal/messaging"
	"github.com/openprint/marketplace-indexer/internal/metadata"
	"github.com/openprint/marketplace-indexer/internal/projector"
	"github.com/openprint/marketplace-indexer/internal/providers/ethereum"
	"github.com/openprint/marketplace-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadProjectorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "projector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Marketplace Projector")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Initialize ethereum client
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.Fatal("Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	defer ethClient.Close()
	editionReader := ethereum.NewEditionReader(ethClient)
	settlementScanner := ethereum.NewSettlementScanner(ethClient, cfg.Ethereum.WethToken)

	// Initialize metadata resolver
	httpClient := adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout)
	metadataResolver := metadata.NewResolver(httpClient, jsonAdapter, cfg.Metadata.IPFSGateway)

	// Initialize NATS JetStream
	natsJS, err := adapter.NewNatsJetStream(cfg.NATS.URL, cfg.NATS.MaxReconnects, cfg.NATS.ReconnectWait)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	// Initialize projection engine
	engine := projector.New(dataStore, editionReader, settlementScanner, metadataResolver, jsonAdapter, clockAdapter)

	// Initialize event subscriber
	eventSubscriber := messaging.NewSubscriber(messaging.Config{
		StreamName:   cfg.NATS.StreamName,
		Subject:      cfg.NATS.Subject,
		ConsumerName: cfg.NATS.ConsumerName,
		AckWait:      cfg.NATS.AckWait,
		MaxDeliver:   cfg.NATS.MaxDeliver,
		NakDelay:     cfg.NATS.NakDelay,
	}, natsJS, jsonAdapter)
	defer eventSubscriber.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for subscriber errors
	errCh := make(chan error, 1)

	// Start consuming events
	go func() {
		if err := eventSubscriber.Run(ctx, engine.Handle); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "subscriber"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Marketplace Projector stopped")
}
