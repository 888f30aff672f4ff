package models

import (
	"encoding/json"
	"time"
)

// RecurrencePattern defines how often a recurring booking repeats.
type RecurrencePattern string

const (
	PatternDaily   RecurrencePattern = "daily"
	PatternWeekly  RecurrencePattern = "weekly"
	PatternMonthly RecurrencePattern = "monthly"
)

// Valid reports whether p is one of the known patterns.
func (p RecurrencePattern) Valid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	default:
		return false
	}
}

// RecurringBooking is a template that bookings are generated from.
// Generated bookings are independent copies; the template keeps no link to them.
type RecurringBooking struct {
	ID              string            `json:"id"`
	Pattern         RecurrencePattern `json:"pattern"`
	StartDate       time.Time         `json:"startDate"`
	EndDate         time.Time         `json:"endDate"`
	RoomID          string            `json:"roomId"`
	Title           string            `json:"title"`
	Requester       string            `json:"requester"`
	Role            Role              `json:"role"`
	DurationMinutes int               `json:"duration"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Duration returns the length of every generated occurrence.
func (r *RecurringBooking) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

func (r RecurringBooking) MarshalJSON() ([]byte, error) {
	type alias RecurringBooking
	return json.Marshal(struct {
		alias
		StartDate int64 `json:"startDate"`
		EndDate   int64 `json:"endDate"`
		CreatedAt int64 `json:"createdAt"`
	}{alias(r), Millis(r.StartDate), Millis(r.EndDate), Millis(r.CreatedAt)})
}
