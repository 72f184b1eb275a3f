package backend

import (
	"context"

	"moneybook/internal/notify"
	"moneybook/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the blob store and an optional cleanup function
type BackendResult struct {
	Store   storage.BlobStore
	Cleanup CleanupFunc
}

// NotifierResult contains the broker notifier, nil for log-only delivery.
type NotifierResult struct {
	Notifier notify.Notifier
	Cleanup  CleanupFunc
}

// Factory creates storage and notification backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateNotifier(ctx context.Context, config NotifyConfig) (*NotifierResult, error)
}

// Config holds configuration for storage backend creation
type Config struct {
	Type BackendType

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string
}

// NotifyConfig holds configuration for the notification broker.
type NotifyConfig struct {
	Type NotifyType

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	KafkaBrokers []string
	KafkaTopic   string

	NATSURL     string
	NATSSubject string
}

// BackendType represents the type of storage backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// NotifyType selects where notifications go besides the log.
type NotifyType string

const (
	LogNotify   NotifyType = "log"
	AMQPNotify  NotifyType = "amqp"
	KafkaNotify NotifyType = "kafka"
	NATSNotify  NotifyType = "nats"
)

func (nt NotifyType) IsValid() bool {
	switch nt {
	case LogNotify, AMQPNotify, KafkaNotify, NATSNotify:
		return true
	default:
		return false
	}
}
