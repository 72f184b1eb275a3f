// Command ledger-notify consumes the notifications ledger servers publish to
// RabbitMQ and writes them to the log.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/cli"
	applog "moneybook/internal/log"
	"moneybook/internal/notify"
	"moneybook/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout).WithComponent(applog.ComponentAMQP)
	logger.Info("Starting ledger-notify", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewNotificationWorker(notify.NewLogNotifier(logger.Slog()), worker.DefaultMaxAge, logger.Slog())

	ctx, done := cli.GracefulShutdown(logger.Slog(), 10*time.Second, func(context.Context) {
		relayed, expired := w.Stats()
		logger.Info("Notification relay stopping", "relayed", relayed, "expired", expired)
	})

	if err := client.ConsumeNotifications(ctx, w.Handler(ctx)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	<-done
}
