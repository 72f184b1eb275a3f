// Package notify delivers short-lived user notifications (toasts).
// Delivery is fire-and-forget: a notifier never fails the operation that
// triggered it.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// DefaultDuration is how long a toast stays on screen.
const DefaultDuration = 3 * time.Second

// Notification is one toast.
type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}

type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, message string, severity Severity)

func (f Func) Notify(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, string, Severity) {})

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, message string, severity Severity) {
	level := slog.LevelInfo
	switch severity {
	case Error:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "Notification", "severity", string(severity), "message", message)
}

// Collector keeps notifications in memory, e.g. for the life of one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
	now   func() time.Time
}

func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

func (c *Collector) Notify(_ context.Context, message string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Notification{Message: message, Severity: severity, Time: c.now()})
}

// Notifications returns what was collected so far.
func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// Last returns the most recent notification.
func (c *Collector) Last() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return Notification{}, false
	}
	return c.items[len(c.items)-1], true
}

// Multi fans a notification out to every notifier, skipping nils.
func Multi(notifiers ...Notifier) Notifier {
	var out []Notifier
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return Func(func(ctx context.Context, message string, severity Severity) {
		for _, n := range out {
			n.Notify(ctx, message, severity)
		}
	})
}

type collectorKey struct{}

// WithCollector attaches c to ctx so that ContextCollector can find it.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// CollectorFrom returns the collector attached to ctx, if any.
func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

// ContextCollector hands each notification to the collector carried by the
// context, so one long-lived notifier can serve per-request toasts.
var ContextCollector Notifier = Func(func(ctx context.Context, message string, severity Severity) {
	if c, ok := CollectorFrom(ctx); ok {
		c.Notify(ctx, message, severity)
	}
})
