package store

import (
	"time"

	"roombook/internal/models"
)

// Tx is the view of the store handed to Atomically callbacks. It is only
// valid for the duration of the callback.
type Tx struct {
	s *Store
}

func (tx *Tx) Now() time.Time { return tx.s.now() }

func (tx *Tx) Bookings() []models.Booking { return tx.s.listBookings() }

func (tx *Tx) Booking(id string) (models.Booking, error) { return tx.s.getBooking(id) }

func (tx *Tx) InsertBooking(candidate models.Booking) models.Booking {
	return tx.s.insertBooking(candidate)
}

func (tx *Tx) UpdateBooking(id string, patch BookingPatch) (models.Booking, error) {
	return tx.s.updateBooking(id, patch)
}

func (tx *Tx) DeleteBooking(id string) (models.Booking, error) { return tx.s.deleteBooking(id) }

func (tx *Tx) Rooms() []models.Room { return tx.s.listRooms() }

func (tx *Tx) Room(id string) (models.Room, error) { return tx.s.getRoom(id) }

func (tx *Tx) DeleteRoom(id string) (models.Room, error) { return tx.s.deleteRoom(id) }

func (tx *Tx) PushNotification(message string, kind models.NotificationKind) models.NotificationItem {
	return tx.s.pushNotification(message, kind)
}

func (tx *Tx) InsertRecurring(r models.RecurringBooking) models.RecurringBooking {
	return tx.s.insertRecurring(r)
}
