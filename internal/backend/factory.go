package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneybook/internal/amqp"
	"moneybook/internal/notify"
	"moneybook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With("component", "backend"),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteBlobStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewFileBlobStore(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	store := storage.NewMemoryBlobStore()

	f.logger.WarnContext(ctx, "Initialized memory backend, transactions are lost on exit")

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

// CreateNotifier implements Factory.CreateNotifier. Broker connection
// failures are returned; callers decide whether to run on log delivery only.
func (f *DefaultFactory) CreateNotifier(ctx context.Context, config NotifyConfig) (*NotifierResult, error) {
	switch config.Type {
	case LogNotify:
		return &NotifierResult{}, nil

	case AMQPNotify:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		n := notify.NewAMQPNotifier(client, f.logger)
		f.logger.InfoContext(ctx, "Initialized AMQP notifications",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return &NotifierResult{Notifier: n, Cleanup: n.Close}, nil

	case KafkaNotify:
		if len(config.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("no Kafka brokers configured")
		}
		n := notify.NewKafkaNotifier(notify.NewKafkaWriter(config.KafkaBrokers, config.KafkaTopic), f.logger)
		f.logger.InfoContext(ctx, "Initialized Kafka notifications",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic)
		return &NotifierResult{Notifier: n, Cleanup: n.Close}, nil

	case NATSNotify:
		nc, err := notify.ConnectNATS(config.NATSURL)
		if err != nil {
			return nil, err
		}
		n := notify.NewNATSNotifier(nc, config.NATSSubject, func() error {
			return nc.Drain()
		}, f.logger)
		f.logger.InfoContext(ctx, "Initialized NATS notifications", "subject", config.NATSSubject)
		return &NotifierResult{Notifier: n, Cleanup: n.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported notify backend: %s", config.Type)
	}
}
