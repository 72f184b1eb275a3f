// Package worker holds the background consumer that relays notifications
// published by ledger servers.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/notify"
)

// DefaultMaxAge matches the expiration the publisher sets on each message.
const DefaultMaxAge = 60 * time.Second

var ErrEmptyMessage = errors.New("empty notification message")

// NotificationWorker forwards queued notifications to a Notifier, dropping
// the ones too old to be worth showing.
type NotificationWorker struct {
	target notify.Notifier
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger

	relayed atomic.Int64
	expired atomic.Int64
}

func NewNotificationWorker(target notify.Notifier, maxAge time.Duration, logger *slog.Logger) *NotificationWorker {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationWorker{
		target: target,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger.With("component", "worker"),
	}
}

// HandleNotification processes a single message from the queue.
func (w *NotificationWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	if msg == nil || msg.Message == "" {
		return ErrEmptyMessage
	}

	if age := w.now().Sub(msg.Timestamp); !msg.Timestamp.IsZero() && age > w.maxAge {
		w.expired.Add(1)
		w.logger.DebugContext(ctx, "Dropping expired notification",
			"severity", msg.Severity,
			"age", age.Round(time.Second))
		return nil
	}

	severity := notify.Severity(msg.Severity)
	switch severity {
	case notify.Success, notify.Error, notify.Warning, notify.Info:
	default:
		severity = notify.Info
	}

	w.target.Notify(ctx, msg.Message, severity)
	w.relayed.Add(1)
	return nil
}

// Handler binds HandleNotification to ctx for amqp.Client.ConsumeNotifications.
// Malformed messages are acknowledged rather than redelivered forever.
func (w *NotificationWorker) Handler(ctx context.Context) func(*amqp.NotificationMessage) error {
	return func(msg *amqp.NotificationMessage) error {
		if err := w.HandleNotification(ctx, msg); err != nil {
			w.logger.WarnContext(ctx, "Skipping notification", "error", err)
		}
		return nil
	}
}

// Stats reports how many messages were relayed and how many expired.
func (w *NotificationWorker) Stats() (relayed, expired int64) {
	return w.relayed.Load(), w.expired.Load()
}
