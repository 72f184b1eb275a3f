package backend

import (
	"context"
	"path/filepath"
	"testing"

	"moneybook/internal/config"
	"moneybook/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "file", DataDir: "/tmp/x"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != FileBackend || cfg.DataDirectory != "/tmp/x" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestNotifyFromAppConfig(t *testing.T) {
	if _, err := NotifyFromAppConfig(&config.Config{NotifyBackend: "smtp"}); err == nil {
		t.Fatal("expected error for unknown notify backend")
	}
	cfg, err := NotifyFromAppConfig(&config.Config{NotifyBackend: "kafka", KafkaTopic: "t", KafkaBrokers: []string{"b:9092"}})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != KafkaNotify || cfg.KafkaTopic != "t" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without directory", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			if err := res.Store.Put(ctx, storage.TransactionsKey, []byte("[]")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, ok, err := res.Store.Get(ctx, storage.TransactionsKey)
			if err != nil || !ok || string(got) != "[]" {
				t.Fatalf("Get = %q %v %v", got, ok, err)
			}
		})
	}

	if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestCreateNotifier(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateNotifier(ctx, NotifyConfig{Type: LogNotify})
	if err != nil || res.Notifier != nil {
		t.Fatalf("log delivery needs no broker, got %+v %v", res, err)
	}

	res, err = f.CreateNotifier(ctx, NotifyConfig{Type: KafkaNotify, KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "t"})
	if err != nil || res.Notifier == nil {
		t.Fatalf("kafka writer is created lazily, got %+v %v", res, err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := f.CreateNotifier(ctx, NotifyConfig{Type: KafkaNotify}); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := f.CreateNotifier(ctx, NotifyConfig{Type: "smtp"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
