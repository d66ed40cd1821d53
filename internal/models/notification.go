// internal/models/notification.go
package models

type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`    // "pool_created"
	Channel   string                 `json:"channel"` // "email", "sms"
	Recipient string                 `json:"recipient"`
	Status    string                 `json:"status"` // "sent", "failed", "disabled"
	MessageID string                 `json:"messageId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SentAt    string                 `json:"sentAt,omitempty"`
}
