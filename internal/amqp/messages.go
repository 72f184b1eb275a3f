package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage carries one user notification to other consumers,
// e.g. a desktop notifier running next to the ledger.
type NotificationMessage struct {
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// NewNotificationMessage stamps a notification with the current time.
func NewNotificationMessage(message, severity string) *NotificationMessage {
	return &NotificationMessage{
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
