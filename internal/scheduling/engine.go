package scheduling

import (
	"time"

	"roombook/internal/models"
)

// BookingSource supplies a snapshot of all bookings.
type BookingSource interface {
	Bookings() []models.Booking
}

// Engine answers conflict and suggestion queries against a live source.
type Engine struct {
	source BookingSource
}

func NewEngine(source BookingSource) *Engine {
	return &Engine{source: source}
}

// CheckConflict returns the active bookings that collide with the request.
func (e *Engine) CheckConflict(roomID string, start, end time.Time, excludeID string) []models.Booking {
	return FindConflicts(e.source.Bookings(), roomID, start, end, excludeID)
}

// SuggestAlternatives returns up to limit free windows for the request.
func (e *Engine) SuggestAlternatives(roomID string, start, end time.Time, limit int) []models.Window {
	return SuggestAlternatives(e.source.Bookings(), roomID, start, end, limit)
}
