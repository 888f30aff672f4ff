package service

import (
	"context"
	"fmt"

	"roombook/internal/events"
	"roombook/internal/models"
)

const defaultNotificationMessage = "System update"

// ListNotifications returns notifications newest first.
func (s *Service) ListNotifications() []models.NotificationItem {
	return s.store.Notifications()
}

// Notify pushes a notification and broadcasts it. An empty message and kind
// default to "System update" and system.
func (s *Service) Notify(message string, kind models.NotificationKind) (models.NotificationItem, error) {
	if message == "" {
		message = defaultNotificationMessage
	}
	if kind == "" {
		kind = models.KindSystem
	}
	if !kind.Valid() {
		return models.NotificationItem{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidNotification, kind)
	}
	n := s.store.PushNotification(message, kind)
	s.broadcast(events.New(events.Notification, n))
	return n, nil
}

// MarkNotificationsRead sets the read flag and returns how many notifications
// were found.
func (s *Service) MarkNotificationsRead(ids []string, read bool) int {
	return s.store.MarkNotificationsRead(ids, read)
}

// SendReminder pushes a reminder notification for a booking about to start.
func (s *Service) SendReminder(_ context.Context, b models.Booking) error {
	msg := fmt.Sprintf("Reminder: %s in %s starts at %s.", b.Title, b.RoomID, b.Start.Format("15:04"))
	_, err := s.Notify(msg, models.KindReminder)
	return err
}
