package scheduling

import (
	"time"

	"roombook/internal/models"
)

const (
	// SlotStep is the distance between consecutive candidate starts.
	SlotStep = 30 * time.Minute
	// SearchHorizon bounds how far past the requested start candidates may begin.
	SearchHorizon = 6 * time.Hour
	// DefaultSuggestionLimit is used when a caller does not pass a limit.
	DefaultSuggestionLimit = 3
)

// FindConflicts returns every active booking in roomID whose interval
// intersects [start, end), in input order. The booking with ID excludeID
// is ignored so a booking being edited does not conflict with itself.
func FindConflicts(bookings []models.Booking, roomID string, start, end time.Time, excludeID string) []models.Booking {
	var conflicts []models.Booking
	for i := range bookings {
		b := &bookings[i]
		if b.RoomID != roomID || !b.IsActive() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			conflicts = append(conflicts, *b)
		}
	}
	return conflicts
}

// HasConflict reports whether FindConflicts would return anything.
func HasConflict(bookings []models.Booking, roomID string, start, end time.Time, excludeID string) bool {
	for i := range bookings {
		b := &bookings[i]
		if b.RoomID != roomID || !b.IsActive() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// SuggestAlternatives proposes up to limit conflict-free windows of the same
// duration as [start, end) in the same room. Candidates start at
// start+SlotStep and advance by SlotStep while the candidate start stays
// before start+SearchHorizon. Results are in ascending start order.
func SuggestAlternatives(bookings []models.Booking, roomID string, start, end time.Time, limit int) []models.Window {
	if limit <= 0 {
		return []models.Window{}
	}

	duration := end.Sub(start)
	horizon := start.Add(SearchHorizon)
	out := make([]models.Window, 0, limit)

	for cursor := start.Add(SlotStep); cursor.Before(horizon) && len(out) < limit; cursor = cursor.Add(SlotStep) {
		candidateEnd := cursor.Add(duration)
		if HasConflict(bookings, roomID, cursor, candidateEnd, "") {
			continue
		}
		out = append(out, models.Window{Start: cursor, End: candidateEnd})
	}
	return out
}
