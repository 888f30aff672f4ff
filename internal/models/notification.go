package models

import (
	"encoding/json"
	"time"
)

// NotificationKind classifies a notification for the client UI.
type NotificationKind string

const (
	KindConfirmation NotificationKind = "confirmation"
	KindCancellation NotificationKind = "cancellation"
	KindReminder     NotificationKind = "reminder"
	KindSystem       NotificationKind = "system"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindConfirmation, KindCancellation, KindReminder, KindSystem:
		return true
	default:
		return false
	}
}

// NotificationItem is a message shown in the notification panel.
type NotificationItem struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
	Kind      NotificationKind `json:"kind"`
}

func (n NotificationItem) MarshalJSON() ([]byte, error) {
	type alias NotificationItem
	return json.Marshal(struct {
		alias
		CreatedAt int64 `json:"createdAt"`
	}{alias(n), Millis(n.CreatedAt)})
}
