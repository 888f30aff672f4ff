package models

import (
	"encoding/json"
	"time"
)

// Role is the requester's role tag attached to every booking request.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// DefaultStatusFor returns the status a new booking gets when the request
// does not carry one: students wait for approval, staff are auto-approved.
func DefaultStatusFor(role Role) BookingStatus {
	if role == RoleStudent || role == "" {
		return StatusPending
	}
	return StatusApproved
}

// Booking represents a room reservation.
// RoomID is a soft reference: it may point at a room that no longer exists.
type Booking struct {
	ID        string        `json:"id"`
	RoomID    string        `json:"roomId"`
	Title     string        `json:"title"`
	Purpose   string        `json:"purpose,omitempty"`
	Requester string        `json:"requester"`
	Role      Role          `json:"role"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Notes     string        `json:"notes,omitempty"`
}

// Duration returns the length of the booked interval.
func (b *Booking) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// IsActive reports whether the booking still holds its room.
// Cancelled and rejected bookings never block other requests.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled && b.Status != StatusRejected
}

// Overlaps checks the interval [start, end) against the booking's own
// [Start, End). Touching boundaries do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return end.After(b.Start) && start.Before(b.End)
}

// OverlapsWith checks if this booking overlaps with another booking.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.Overlaps(other.Start, other.End)
}

// ContainsTime reports whether t falls inside [Start, End).
func (b *Booking) ContainsTime(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// MarshalJSON encodes instants as epoch milliseconds.
func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		Start     int64 `json:"start"`
		End       int64 `json:"end"`
		CreatedAt int64 `json:"createdAt"`
	}{
		alias:     alias(b),
		Start:     Millis(b.Start),
		End:       Millis(b.End),
		CreatedAt: Millis(b.CreatedAt),
	})
}

// Window is a candidate time range offered instead of a conflicting request.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MarshalJSON encodes instants as epoch milliseconds.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}{Millis(w.Start), Millis(w.End)})
}

// Millis converts t to epoch milliseconds; the zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC time; 0 maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
