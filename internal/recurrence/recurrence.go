package recurrence

import (
	"errors"
	"fmt"
	"time"

	"roombook/internal/models"
)

// MaxOccurrences caps how many bookings a single template may generate.
const MaxOccurrences = 366

var (
	ErrInvalidPattern     = errors.New("invalid recurrence pattern")
	ErrInvalidRange       = errors.New("recurrence end date is before start date")
	ErrInvalidDuration    = errors.New("recurrence duration must be positive")
	ErrTooManyOccurrences = fmt.Errorf("recurrence produces more than %d occurrences", MaxOccurrences)
)

// Validate checks the template fields needed for expansion.
func Validate(tpl models.RecurringBooking) error {
	if !tpl.Pattern.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, tpl.Pattern)
	}
	if tpl.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if tpl.EndDate.Before(tpl.StartDate) {
		return ErrInvalidRange
	}
	return nil
}

// Next advances t by one step of pattern. Monthly steps follow
// time.AddDate normalization, so Jan 31 advances to Mar 3 (or Mar 2 in a
// leap year).
func Next(t time.Time, pattern models.RecurrencePattern) time.Time {
	switch pattern {
	case models.PatternDaily:
		return t.AddDate(0, 0, 1)
	case models.PatternWeekly:
		return t.AddDate(0, 0, 7)
	case models.PatternMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t
	}
}

// Starts lists every occurrence start from StartDate through EndDate
// inclusive.
func Starts(tpl models.RecurringBooking) ([]time.Time, error) {
	if err := Validate(tpl); err != nil {
		return nil, err
	}

	var out []time.Time
	for cursor := tpl.StartDate; !cursor.After(tpl.EndDate); cursor = Next(cursor, tpl.Pattern) {
		if len(out) == MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		out = append(out, cursor)
	}
	return out, nil
}

// Expand turns a stored template into booking candidates. The candidates
// carry no ID or CreatedAt; the store assigns those on insert.
func Expand(tpl models.RecurringBooking) ([]models.Booking, error) {
	starts, err := Starts(tpl)
	if err != nil {
		return nil, err
	}

	duration := tpl.Duration()
	bookings := make([]models.Booking, 0, len(starts))
	for _, start := range starts {
		bookings = append(bookings, models.Booking{
			RoomID:    tpl.RoomID,
			Title:     tpl.Title + " (Recurring)",
			Requester: tpl.Requester,
			Role:      tpl.Role,
			Start:     start,
			End:       start.Add(duration),
			Status:    models.DefaultStatusFor(tpl.Role),
			Notes:     "Generated from recurring booking " + tpl.ID,
		})
	}
	return bookings, nil
}
