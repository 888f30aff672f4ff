package service

import (
	"fmt"
	"strings"
	"time"

	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/models"
	"roombook/internal/recurrence"
	"roombook/internal/scheduling"
	"roombook/internal/store"
)

// RecurringInput describes a recurring booking template.
type RecurringInput struct {
	Pattern         models.RecurrencePattern
	StartDate       time.Time
	EndDate         time.Time
	RoomID          string
	Title           string
	Requester       string
	Role            models.Role
	DurationMinutes int
}

// SkippedOccurrence is a generated occurrence that was not stored because
// it overlapped an active booking.
type SkippedOccurrence struct {
	Start     time.Time
	End       time.Time
	Conflicts []models.Booking
}

// RecurringResult reports what CreateRecurring stored.
type RecurringResult struct {
	Recurring models.RecurringBooking
	Generated []models.Booking
	Skipped   []SkippedOccurrence
}

// ListRecurring returns every stored template.
func (s *Service) ListRecurring() []models.RecurringBooking {
	return s.store.RecurringBookings()
}

// CreateRecurring stores a template and generates its occurrences.
// Occurrences that conflict with active bookings, including earlier
// occurrences of the same template, are skipped and reported.
func (s *Service) CreateRecurring(in RecurringInput) (RecurringResult, error) {
	tpl := models.RecurringBooking{
		Pattern:         in.Pattern,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		RoomID:          in.RoomID,
		Title:           in.Title,
		Requester:       in.Requester,
		Role:            in.Role,
		DurationMinutes: in.DurationMinutes,
	}
	if strings.TrimSpace(tpl.RoomID) == "" {
		return RecurringResult{}, fmt.Errorf("%w: room is required", ErrInvalidBooking)
	}
	if tpl.StartDate.IsZero() || tpl.EndDate.IsZero() {
		return RecurringResult{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidBooking)
	}
	if tpl.Title == "" {
		tpl.Title = defaultBookingTitle
	}
	if tpl.Requester == "" {
		tpl.Requester = defaultRequester
	}
	if tpl.Role == "" {
		tpl.Role = models.RoleStudent
	}
	if !tpl.Role.Valid() {
		return RecurringResult{}, fmt.Errorf("%w: unknown role %q", ErrInvalidBooking, tpl.Role)
	}
	if _, err := recurrence.Starts(tpl); err != nil {
		return RecurringResult{}, err
	}

	var result RecurringResult
	err := s.store.Atomically(func(tx *store.Tx) error {
		result.Recurring = tx.InsertRecurring(tpl)
		occurrences, err := recurrence.Expand(result.Recurring)
		if err != nil {
			return err
		}
		for _, occ := range occurrences {
			if conflicts := scheduling.FindConflicts(tx.Bookings(), occ.RoomID, occ.Start, occ.End, ""); len(conflicts) > 0 {
				result.Skipped = append(result.Skipped, SkippedOccurrence{Start: occ.Start, End: occ.End, Conflicts: conflicts})
				continue
			}
			result.Generated = append(result.Generated, tx.InsertBooking(occ))
		}
		return nil
	})
	if err != nil {
		return RecurringResult{}, err
	}

	for _, b := range result.Generated {
		metrics.IncBookingCreated(string(b.Status))
	}
	if len(result.Skipped) > 0 {
		metrics.IncBookingConflict("recurring")
	}
	s.logger.Info().
		Str("recurring_id", result.Recurring.ID).
		Int("generated", len(result.Generated)).
		Int("skipped", len(result.Skipped)).
		Msg("recurring booking created")

	generated := result.Generated
	if generated == nil {
		generated = []models.Booking{}
	}
	s.broadcast(events.New(events.RecurringCreated, map[string]any{
		"recurring": result.Recurring,
		"bookings":  generated,
	}))
	return result, nil
}
