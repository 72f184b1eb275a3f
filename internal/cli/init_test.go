package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moneybook/internal/config"
	"moneybook/internal/notify"
	"moneybook/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		DataBackend:        "file",
		DataDir:            t.TempDir(),
		Locale:             "en",
		Currency:           "USD",
		NotifyBackend:      "log",
		NotifyDuration:     3 * time.Second,
		LogLevel:           "info",
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LEDGER_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEDGER_TEST_VALUE", "")
	os.Unsetenv("LEDGER_TEST_VALUE")

	if err := LoadEnvFile(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("LEDGER_TEST_VALUE"); got != "from-file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", &buf)
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestOpenPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	collector := notify.NewCollector()

	app, err := Open(ctx, cfg, nil, collector)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, rec, err := app.Service.Submit(ctx, services.RawInput{Description: "Salary", Amount: "1000", Date: "2024-01-01", Type: "income"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if last, ok := collector.Last(); !ok || last.Severity != notify.Success {
		t.Fatalf("expected success notification, got %+v", last)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if _, ok := again.Store.Get(rec.ID); !ok {
		t.Fatalf("record %s not persisted", rec.ID)
	}
	if again.Catalog.Income != "Income" {
		t.Fatalf("expected English catalog, got %v", again.Catalog.Tag)
	}
}

func TestOpenSurvivesBrokerFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.NotifyBackend = "nats"
	cfg.NATSURL = "nats://127.0.0.1:1"
	cfg.NATSSubject = "ledger.notifications"

	app, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("broker failure must not stop the ledger: %v", err)
	}
	defer app.Close()
	if app.Notifier == nil {
		t.Fatal("expected log notifier")
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "sheets"
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}
