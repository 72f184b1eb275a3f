package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"

	"moneybook/internal/amqp"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 64
)

// publishFunc sends one encoded notification to a broker.
type publishFunc func(ctx context.Context, n Notification) error

type outgoing struct {
	ctx context.Context
	n   Notification
}

// BrokerNotifier publishes notifications to a message broker from a
// background goroutine, so a slow or unreachable broker never holds up the
// caller. Publish failures are logged and swallowed; when the queue is full
// the notification is dropped.
type BrokerNotifier struct {
	name    string
	publish publishFunc
	closer  func() error
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan outgoing
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newBrokerNotifier(name string, publish publishFunc, closer func() error, logger *slog.Logger) *BrokerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	b := &BrokerNotifier{
		name:    name,
		publish: publish,
		closer:  closer,
		logger:  logger.With("component", "notify", "broker", name),
		now:     time.Now,
		queue:   make(chan outgoing, queueSize),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *BrokerNotifier) Notify(ctx context.Context, message string, severity Severity) {
	out := outgoing{
		// The request that raised the toast may end before the publish does.
		ctx: context.WithoutCancel(ctx),
		n:   Notification{Message: message, Severity: severity, Time: b.now()},
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- out:
	default:
		b.logger.WarnContext(ctx, "Notification queue full, dropping", "severity", string(severity))
	}
}

func (b *BrokerNotifier) run() {
	defer close(b.done)
	for out := range b.queue {
		ctx, cancel := context.WithTimeout(out.ctx, publishTimeout)
		if err := b.publish(ctx, out.n); err != nil {
			b.logger.WarnContext(ctx, "Failed to publish notification", "error", err, "severity", string(out.n.Severity))
		}
		cancel()
	}
}

// Close publishes what is still queued, then releases the broker
// connection. Later notifications are ignored.
func (b *BrokerNotifier) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
		<-b.done

		if b.closer != nil {
			b.closeErr = b.closer()
		}
	})
	return b.closeErr
}

// Name is the broker kind, e.g. "kafka".
func (b *BrokerNotifier) Name() string { return b.name }

// AMQPPublisher is the part of the AMQP client the notifier needs.
type AMQPPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
	Close() error
}

func NewAMQPNotifier(client AMQPPublisher, logger *slog.Logger) *BrokerNotifier {
	return newBrokerNotifier("amqp", func(ctx context.Context, n Notification) error {
		msg := &amqp.NotificationMessage{Message: n.Message, Severity: string(n.Severity), Timestamp: n.Time}
		return client.PublishNotification(ctx, msg)
	}, client.Close, logger)
}

// KafkaWriter is satisfied by *kafka.Writer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: publishTimeout,
	}
}

func NewKafkaNotifier(w KafkaWriter, logger *slog.Logger) *BrokerNotifier {
	return newBrokerNotifier("kafka", func(ctx context.Context, n Notification) error {
		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		return w.WriteMessages(ctx, kafka.Message{
			Key:   []byte(n.Severity),
			Value: body,
			Time:  n.Time,
		})
	}, w.Close, logger)
}

// NATSPublisher is satisfied by *nats.Conn.
type NATSPublisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials a NATS server with a client name.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("moneybook"), nats.Timeout(publishTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect NATS: %w", err)
	}
	return nc, nil
}

func NewNATSNotifier(conn NATSPublisher, subject string, closer func() error, logger *slog.Logger) *BrokerNotifier {
	return newBrokerNotifier("nats", func(ctx context.Context, n Notification) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		return conn.Publish(subject, body)
	}, closer, logger)
}
