package service

import (
	"errors"
	"fmt"

	"roombook/internal/models"
	"roombook/internal/recurrence"
)

var (
	ErrInvalidInterval     = errors.New("end must be after start")
	ErrInvalidBooking      = errors.New("invalid booking")
	ErrInvalidRoom         = errors.New("invalid room")
	ErrRoomInUse           = errors.New("room has active bookings")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrInvalidUser         = errors.New("invalid user")
	ErrInvalidEquipment    = errors.New("invalid equipment")

	ErrInvalidPattern     = recurrence.ErrInvalidPattern
	ErrTooManyOccurrences = recurrence.ErrTooManyOccurrences
)

// ConflictError is returned when a booking request overlaps existing active
// bookings. Alternatives holds conflict-free windows of the same duration.
type ConflictError struct {
	Conflicts    []models.Booking
	Alternatives []models.Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s)", len(e.Conflicts))
}

// IsValidation reports whether err describes bad caller input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInterval,
		ErrInvalidBooking,
		ErrInvalidRoom,
		ErrInvalidNotification,
		ErrInvalidUser,
		ErrInvalidEquipment,
		recurrence.ErrInvalidPattern,
		recurrence.ErrInvalidRange,
		recurrence.ErrInvalidDuration,
		recurrence.ErrTooManyOccurrences,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
