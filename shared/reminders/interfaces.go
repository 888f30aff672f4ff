package reminders

import (
	"context"

	"roombook/internal/models"
)

// BookingSource provides the current schedule.
type BookingSource interface {
	Bookings() []models.Booking
}

// Notifier delivers a reminder about a booking that is about to start.
type Notifier interface {
	SendReminder(ctx context.Context, booking models.Booking) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, booking models.Booking) error

func (f NotifierFunc) SendReminder(ctx context.Context, booking models.Booking) error {
	return f(ctx, booking)
}

// Announcer broadcasts free text, used for the daily digest.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}
