// Package cli provides the startup wiring shared by cmd/ledger,
// cmd/ledgerctl and cmd/ledger-notify.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneybook/internal/backend"
	"moneybook/internal/config"
	"moneybook/internal/ledger"
	"moneybook/internal/locale"
	applog "moneybook/internal/log"
	"moneybook/internal/notify"
	"moneybook/internal/presenter"
	"moneybook/internal/services"
	"moneybook/internal/storage"
)

// SetupLogger initializes structured logging at level and makes it the
// default logger.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is the wired ledger: storage, store, notifications and the views.
type App struct {
	Config    *config.Config
	Store     *ledger.Store
	Service   *services.TransactionService
	Presenter *presenter.Presenter
	Catalog   locale.Catalog
	Notifier  notify.Notifier

	cleanups []backend.CleanupFunc
	logger   *slog.Logger
}

// Open builds the App from cfg. Extra notifiers receive every notification
// next to the log and the configured broker.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...notify.Notifier) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	factory := backend.NewFactory(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, logger: logger}
	app.cleanups = append(app.cleanups, res.Cleanup)

	notifiers := append([]notify.Notifier{notify.NewLogNotifier(logger), notify.ContextCollector}, extra...)
	notifyCfg, err := backend.NotifyFromAppConfig(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	broker, err := factory.CreateNotifier(ctx, notifyCfg)
	switch {
	case err != nil:
		// Toasts still reach the page; only the broker copy is lost.
		logger.WarnContext(ctx, "Notification broker unavailable, continuing with log delivery", "error", err, "backend", notifyCfg.Type)
	case broker.Notifier != nil:
		notifiers = append(notifiers, broker.Notifier)
		app.cleanups = append(app.cleanups, broker.Cleanup)
	}
	app.Notifier = notify.Multi(notifiers...)

	app.Catalog = locale.Lookup(cfg.Locale)
	app.Presenter = presenter.New(app.Catalog, locale.NewFormatter(app.Catalog.Tag, cfg.Currency))
	app.Store = ledger.Open(ctx, storage.NewPersistence(res.Store, logger), logger)
	app.Service = services.NewTransactionService(app.Store,
		services.WithCatalog(app.Catalog),
		services.WithNotifier(app.Notifier),
		services.WithLogger(logger),
	)

	logger.InfoContext(ctx, "Ledger ready",
		"backend", cfg.DataBackend,
		"notify", cfg.NotifyBackend,
		"locale", app.Catalog.Tag.String(),
		"currency", cfg.Currency,
		"transactions", app.Store.Len())
	return app, nil
}

// Close releases storage and broker connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if c := a.cleanups[i]; c != nil {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with at most timeout to finish.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
