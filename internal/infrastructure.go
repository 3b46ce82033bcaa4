package internal

import (
	"context"
	"fmt"
	"time"

	"room-listing-service/internal/adapters/jsonstore"
	"room-listing-service/internal/adapters/localfs"
	logger_adapter "room-listing-service/internal/adapters/logger"
	postgres_adapter "room-listing-service/internal/adapters/postgres"
	rabbitmq_adapter "room-listing-service/internal/adapters/rabbitmq"
	"room-listing-service/internal/configs"
	"room-listing-service/internal/constants"
	"room-listing-service/internal/core/port"
	fluentlogger "room-listing-service/pkg/fluent_logger"
	"room-listing-service/pkg/postgres"
	"room-listing-service/pkg/rabbitmq/rabbitmq_common"
	"room-listing-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/jackc/pgx/v5/pgxpool"
)

// infrastructure - общее для HTTP сервиса и cmd/clean-images:
// логгеры, Durable Store, каталог картинок и публикация событий.
type infrastructure struct {
	baseLogger port.LoggerPort

	store  port.DocumentStorePort
	assets *localfs.AssetDirectory
	events port.ListingEventsPort

	fluentAdapter *logger_adapter.FluentLoggerAdapter
	pool          *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
}

func newInfrastructure(ctx context.Context, cfg *configs.AppConfig) (*infrastructure, error) {
	infra := &infrastructure{}

	baseLogger, err := infra.initLoggers(cfg)
	if err != nil {
		return nil, err
	}
	infra.baseLogger = baseLogger
	appLogger := baseLogger.WithFields(port.Fields{"component": "infrastructure"})

	if err := infra.initStore(ctx, cfg, appLogger); err != nil {
		infra.close(appLogger)
		return nil, err
	}

	infra.assets, err = localAssets(cfg)
	if err != nil {
		appLogger.Error("Failed to open assets directory", err, port.Fields{"dir": cfg.Storage.AssetsDir})
		infra.close(appLogger)
		return nil, err
	}

	if err := infra.initEvents(cfg, appLogger); err != nil {
		infra.close(appLogger)
		return nil, err
	}

	return infra, nil
}

func (i *infrastructure) initLoggers(cfg *configs.AppConfig) (port.LoggerPort, error) {
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLogLevel(cfg.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if cfg.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:         cfg.FluentBit.Host,
			Port:         cfg.FluentBit.Port,
			TagPrefix:    cfg.AppName,
			Async:        true,
			WriteTimeout: 3 * time.Second,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLogLevel(cfg.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		i.fluentAdapter = fluentAdapter
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": cfg.AppName})
	baseLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": cfg.FluentBit.Enabled,
	})
	return baseLogger, nil
}

func (i *infrastructure) initStore(ctx context.Context, cfg *configs.AppConfig, logger port.LoggerPort) error {
	switch cfg.Storage.Backend {
	case configs.StoreBackendPostgres:
		pool, err := postgres.NewClient(ctx, postgres.Config{
			DatabaseURL: cfg.Storage.DatabaseURL,
			MaxConns:    10,
			PingTimeout: 5 * time.Second,
		})
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL", err, nil)
			return err
		}
		i.pool = pool

		store := postgres_adapter.NewPostgresDocumentStore(pool, "rooms")
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to prepare room_documents table", err, nil)
			return err
		}
		i.store = store
	default:
		i.store = jsonstore.NewFileDocumentStore(cfg.Storage.DataFile)
	}
	logger.Info("Durable store initialized", port.Fields{"backend": cfg.Storage.Backend})
	return nil
}

func (i *infrastructure) initEvents(cfg *configs.AppConfig, logger port.LoggerPort) error {
	if !cfg.RabbitMQ.Enabled {
		i.events = rabbitmq_adapter.NoopListingEvents{}
		logger.Info("RabbitMQ disabled, listing events are not published", nil)
		return nil
	}

	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(i.baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
	connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: cfg.RabbitMQ.URL}, connManagerBridge)
	if err != nil {
		logger.Error("Failed to create connection manager", err, nil)
		return fmt.Errorf("failed to create connection manager: %w", err)
	}
	i.connManager = connManager

	eventProducer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:             constants.ExchangeListingEvents,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(i.baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		logger.Error("Failed to create event producer", err, nil)
		return fmt.Errorf("failed to create event producer: %w", err)
	}
	i.eventProducer = eventProducer

	events, err := rabbitmq_adapter.NewListingEventsPublisher(eventProducer)
	if err != nil {
		return err
	}
	i.events = events
	logger.Info("RabbitMQ listing events publisher initialized", port.Fields{"exchange": constants.ExchangeListingEvents})
	return nil
}

// close освобождает ресурсы в обратном порядке. Fluent закрывается последним,
// чтобы в него успели уйти логи остановки.
func (i *infrastructure) close(logger port.LoggerPort) {
	if i.eventProducer != nil {
		if err := i.eventProducer.Close(); err != nil {
			logger.Error("Error closing event producer", err, nil)
		}
	}
	if i.connManager != nil {
		if err := i.connManager.Close(); err != nil {
			logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if i.pool != nil {
		i.pool.Close()
	}
	if i.fluentAdapter != nil {
		if err := i.fluentAdapter.Close(); err != nil {
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}
