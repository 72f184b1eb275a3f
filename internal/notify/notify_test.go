package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"moneybook/internal/amqp"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	if _, ok := c.Last(); ok {
		t.Fatalf("expected empty collector")
	}
	c.Notify(context.Background(), "first", Info)
	c.Notify(context.Background(), "second", Success)

	if got := len(c.Notifications()); got != 2 {
		t.Fatalf("expected 2 notifications, got %d", got)
	}
	last, ok := c.Last()
	if !ok || last.Message != "second" || last.Severity != Success {
		t.Fatalf("unexpected last notification %+v", last)
	}
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	Multi(a, nil, b).Notify(context.Background(), "hello", Warning)
	if len(a.Notifications()) != 1 || len(b.Notifications()) != 1 {
		t.Fatalf("expected fan-out to both collectors")
	}
}

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n := NewLogNotifier(logger)

	n.Notify(context.Background(), "boom", Error)
	n.Notify(context.Background(), "ok", Success)

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "msg=Notification") {
		t.Fatalf("expected error-level line, got %q", out)
	}
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "message=ok") {
		t.Fatalf("expected info-level line, got %q", out)
	}
}

type fakeKafka struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeKafka) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafka) Close() error { f.closed = true; return nil }

func TestKafkaNotifier(t *testing.T) {
	w := &fakeKafka{}
	n := NewKafkaNotifier(w, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	n.Notify(context.Background(), "Transaction added successfully!", Success)
	if err := n.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed")
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "success" {
		t.Fatalf("unexpected key %q", w.msgs[0].Key)
	}
	var got Notification
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Message != "Transaction added successfully!" || got.Severity != Success {
		t.Fatalf("unexpected payload %+v", got)
	}

	n.Notify(context.Background(), "after close", Info)
	if len(w.msgs) != 1 {
		t.Fatalf("notification accepted after close")
	}
}

func TestBrokerFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeKafka{err: errors.New("broker down")}
	n := NewKafkaNotifier(w, slog.New(slog.NewTextHandler(&buf, nil)))

	n.Notify(context.Background(), "x", Info)
	_ = n.Close()

	if !strings.Contains(buf.String(), "Failed to publish notification") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

type blockingKafka struct {
	release chan struct{}
	fakeKafka
}

func (b *blockingKafka) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	<-b.release
	return b.fakeKafka.WriteMessages(ctx, msgs...)
}

func TestNotifyDoesNotWaitForBroker(t *testing.T) {
	w := &blockingKafka{release: make(chan struct{})}
	n := NewKafkaNotifier(w, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	returned := make(chan struct{})
	go func() {
		n.Notify(context.Background(), "one", Success)
		n.Notify(context.Background(), "two", Success)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("Notify blocked on a stalled broker")
	}

	close(w.release)
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("queued notifications not flushed on close, got %d", len(w.msgs))
	}
}

type fakeNATS struct {
	subject string
	data    []byte
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

func TestNATSNotifier(t *testing.T) {
	conn := &fakeNATS{}
	n := NewNATSNotifier(conn, "ledger.notifications", nil, nil)
	n.Notify(context.Background(), "deleted", Success)
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if conn.subject != "ledger.notifications" {
		t.Fatalf("unexpected subject %q", conn.subject)
	}
	if !strings.Contains(string(conn.data), `"severity":"success"`) {
		t.Fatalf("unexpected payload %s", conn.data)
	}
}

type fakeAMQP struct {
	got    *amqp.NotificationMessage
	ctxErr error
}

func (f *fakeAMQP) PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	f.got, f.ctxErr = msg, ctx.Err()
	return nil
}

func (f *fakeAMQP) Close() error { return nil }

func TestAMQPNotifier(t *testing.T) {
	client := &fakeAMQP{}
	n := NewAMQPNotifier(client, nil)

	// The publish outlives the request that raised it.
	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, "saved", Success)
	cancel()
	_ = n.Close()

	if client.ctxErr != nil {
		t.Fatalf("publish saw the caller's cancellation: %v", client.ctxErr)
	}
	if client.got == nil || client.got.Message != "saved" || client.got.Severity != "success" {
		t.Fatalf("unexpected message %+v", client.got)
	}
	if n.Name() != "amqp" {
		t.Fatalf("unexpected name %q", n.Name())
	}
}

func TestContextCollector(t *testing.T) {
	ContextCollector.Notify(context.Background(), "dropped", Info)

	c := NewCollector()
	ctx := WithCollector(context.Background(), c)
	Multi(Discard, ContextCollector).Notify(ctx, "kept", Success)

	if got, ok := CollectorFrom(ctx); !ok || got != c {
		t.Fatalf("collector not found on context")
	}
	if last, ok := c.Last(); !ok || last.Message != "kept" {
		t.Fatalf("unexpected notifications %+v", c.Notifications())
	}
}
