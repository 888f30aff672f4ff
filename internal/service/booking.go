package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/models"
	"roombook/internal/scheduling"
	"roombook/internal/store"
)

const (
	defaultBookingTitle = "Classroom Booking"
	defaultRequester    = "Anonymous"
)

// BookingInput is a new booking request. Empty Title, Requester and Role
// take defaults; an empty Status is derived from the role.
type BookingInput struct {
	RoomID    string
	Title     string
	Purpose   string
	Requester string
	Role      models.Role
	Start     time.Time
	End       time.Time
	Status    models.BookingStatus
	Notes     string
}

// BookingFilter narrows ListBookings. Zero values disable a condition.
type BookingFilter struct {
	From   time.Time
	To     time.Time
	Status models.BookingStatus
	RoomID string
	Query  string
}

func (f BookingFilter) match(b *models.Booking, query string) bool {
	if !f.From.IsZero() && b.End.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && b.Start.After(f.To) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.RoomID != "" && b.RoomID != f.RoomID {
		return false
	}
	if query != "" &&
		!strings.Contains(strings.ToLower(b.Title), query) &&
		!strings.Contains(strings.ToLower(b.Requester), query) {
		return false
	}
	return true
}

// ListBookings returns the bookings matching filter in insertion order.
func (s *Service) ListBookings(filter BookingFilter) []models.Booking {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	all := s.store.Bookings()
	out := make([]models.Booking, 0, len(all))
	for i := range all {
		if filter.match(&all[i], query) {
			out = append(out, all[i])
		}
	}
	return out
}

// GetBooking returns a booking by ID.
func (s *Service) GetBooking(id string) (models.Booking, error) {
	b, err := s.store.Booking(id)
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// CheckConflict validates the interval and returns the active bookings it
// would collide with.
func (s *Service) CheckConflict(roomID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}
	return s.engine.CheckConflict(roomID, start, end, excludeID), nil
}

// SuggestAlternatives validates the interval and returns up to limit free
// windows. A non-positive limit yields none.
func (s *Service) SuggestAlternatives(roomID string, start, end time.Time, limit int) ([]models.Window, error) {
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}
	return s.engine.SuggestAlternatives(roomID, start, end, limit), nil
}

// CreateBooking checks the requested window and commits the booking in one
// critical section. On conflict nothing is stored and a *ConflictError with
// alternatives is returned.
func (s *Service) CreateBooking(in BookingInput) (models.Booking, error) {
	candidate, err := normalizeBookingInput(in)
	if err != nil {
		return models.Booking{}, err
	}

	var (
		created models.Booking
		notif   models.NotificationItem
	)
	err = s.store.Atomically(func(tx *store.Tx) error {
		bookings := tx.Bookings()
		if conflicts := scheduling.FindConflicts(bookings, candidate.RoomID, candidate.Start, candidate.End, ""); len(conflicts) > 0 {
			return &ConflictError{
				Conflicts:    conflicts,
				Alternatives: scheduling.SuggestAlternatives(bookings, candidate.RoomID, candidate.Start, candidate.End, scheduling.DefaultSuggestionLimit),
			}
		}
		created = tx.InsertBooking(candidate)
		notif = tx.PushNotification("New booking "+created.Title, models.KindConfirmation)
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.IncBookingConflict("create")
			s.logger.Info().Str("room_id", candidate.RoomID).Int("conflicts", len(conflict.Conflicts)).Msg("booking rejected: conflict")
		}
		return models.Booking{}, err
	}

	metrics.IncBookingCreated(string(created.Status))
	s.logger.Info().Str("booking_id", created.ID).Str("room_id", created.RoomID).Str("status", string(created.Status)).Msg("booking created")
	s.broadcast(
		events.New(events.BookingCreated, created),
		events.New(events.Notification, notif),
	)
	return created, nil
}

func normalizeBookingInput(in BookingInput) (models.Booking, error) {
	if strings.TrimSpace(in.RoomID) == "" {
		return models.Booking{}, fmt.Errorf("%w: room is required", ErrInvalidBooking)
	}
	if in.Start.IsZero() || in.End.IsZero() || !in.End.After(in.Start) {
		return models.Booking{}, ErrInvalidInterval
	}
	if in.Title == "" {
		in.Title = defaultBookingTitle
	}
	if in.Requester == "" {
		in.Requester = defaultRequester
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}
	if !in.Role.Valid() {
		return models.Booking{}, fmt.Errorf("%w: unknown role %q", ErrInvalidBooking, in.Role)
	}
	if in.Status != "" && !in.Status.Valid() {
		return models.Booking{}, fmt.Errorf("%w: unknown status %q", ErrInvalidBooking, in.Status)
	}

	return models.Booking{
		RoomID:    in.RoomID,
		Title:     in.Title,
		Purpose:   in.Purpose,
		Requester: in.Requester,
		Role:      in.Role,
		Start:     in.Start,
		End:       in.End,
		Status:    in.Status,
		Notes:     in.Notes,
	}, nil
}

// UpdateBooking merges patch into a booking. When the patch moves the
// booking in time or space the new window is re-checked against every
// other active booking in the same critical section as the write.
func (s *Service) UpdateBooking(id string, patch store.BookingPatch) (models.Booking, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return models.Booking{}, fmt.Errorf("%w: unknown role %q", ErrInvalidBooking, *patch.Role)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Booking{}, fmt.Errorf("%w: unknown status %q", ErrInvalidBooking, *patch.Status)
	}
	if patch.RoomID != nil && strings.TrimSpace(*patch.RoomID) == "" {
		return models.Booking{}, fmt.Errorf("%w: room is required", ErrInvalidBooking)
	}

	var updated models.Booking
	err := s.store.Atomically(func(tx *store.Tx) error {
		current, err := tx.Booking(id)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", id, err)
		}
		next := patch.Preview(current)
		reactivated := !current.IsActive() && next.IsActive()
		if patch.TouchesSchedule() || reactivated {
			if !next.End.After(next.Start) {
				return ErrInvalidInterval
			}
			if next.IsActive() {
				bookings := tx.Bookings()
				if conflicts := scheduling.FindConflicts(bookings, next.RoomID, next.Start, next.End, next.ID); len(conflicts) > 0 {
					return &ConflictError{
						Conflicts:    conflicts,
						Alternatives: scheduling.SuggestAlternatives(bookings, next.RoomID, next.Start, next.End, scheduling.DefaultSuggestionLimit),
					}
				}
			}
		}
		updated, err = tx.UpdateBooking(id, patch)
		return err
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.IncBookingConflict("update")
		}
		return models.Booking{}, err
	}

	s.logger.Info().Str("booking_id", id).Msg("booking updated")
	s.broadcast(events.New(events.BookingUpdated, updated))
	return updated, nil
}

// DeleteBooking removes a booking.
func (s *Service) DeleteBooking(id string) (models.Booking, error) {
	removed, err := s.store.DeleteBooking(id)
	if err != nil {
		return models.Booking{}, fmt.Errorf("delete booking %s: %w", id, err)
	}
	s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	s.broadcast(events.New(events.BookingDeleted, removed))
	return removed, nil
}

// ApproveBooking moves a pending booking to approved.
func (s *Service) ApproveBooking(id string) (models.Booking, error) {
	return s.transition(id, models.StatusApproved)
}

// RejectBooking moves a pending or approved booking to rejected.
func (s *Service) RejectBooking(id string) (models.Booking, error) {
	return s.transition(id, models.StatusRejected)
}

// CancelBooking moves a pending or approved booking to cancelled.
func (s *Service) CancelBooking(id string) (models.Booking, error) {
	return s.transition(id, models.StatusCancelled)
}

func canTransition(from, to models.BookingStatus) bool {
	switch to {
	case models.StatusApproved:
		return from == models.StatusPending
	case models.StatusRejected, models.StatusCancelled:
		return from == models.StatusPending || from == models.StatusApproved
	default:
		return false
	}
}

func transitionNotice(b models.Booking) (string, models.NotificationKind) {
	switch b.Status {
	case models.StatusApproved:
		return fmt.Sprintf("Booking %s confirmed.", b.ID), models.KindConfirmation
	case models.StatusRejected:
		return fmt.Sprintf("Booking %s rejected.", b.ID), models.KindCancellation
	default:
		return fmt.Sprintf("Booking %s cancelled.", b.ID), models.KindCancellation
	}
}

func (s *Service) transition(id string, to models.BookingStatus) (models.Booking, error) {
	var (
		updated models.Booking
		notif   models.NotificationItem
	)
	err := s.store.Atomically(func(tx *store.Tx) error {
		current, err := tx.Booking(id)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", id, err)
		}
		if !canTransition(current.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}
		updated, err = tx.UpdateBooking(id, store.BookingPatch{Status: &to})
		if err != nil {
			return err
		}
		message, kind := transitionNotice(updated)
		notif = tx.PushNotification(message, kind)
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	switch to {
	case models.StatusCancelled:
		metrics.IncBookingCancelled()
	default:
		metrics.IncAdminDecision(string(to))
	}
	s.logger.Info().Str("booking_id", id).Str("status", string(to)).Msg("booking status changed")
	s.broadcast(
		events.New(events.BookingUpdated, updated),
		events.New(events.Notification, notif),
	)
	return updated, nil
}
