package service

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombook/internal/events"
	"roombook/internal/models"
	"roombook/internal/store"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func hm(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) listen(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T, seed bool) (*Service, *recorder) {
	t.Helper()
	var seq int64
	st := store.New(events.NewEventBus(zerolog.New(io.Discard)),
		store.WithClock(func() time.Time { return now }),
		store.WithIDGenerator(func(prefix string) string {
			return fmt.Sprintf("%s-t%d", prefix, atomic.AddInt64(&seq, 1))
		}),
	)
	if seed {
		st.Seed(now)
	}
	rec := &recorder{}
	st.Subscribe(rec.listen)
	return New(st, zerolog.New(io.Discard)), rec
}

func TestCreateBooking(t *testing.T) {
	svc, rec := newTestService(t, true)

	b, err := svc.CreateBooking(BookingInput{RoomID: "r-102", Start: hm(9, 0), End: hm(10, 0)})
	require.NoError(t, err)

	assert.Equal(t, "Classroom Booking", b.Title)
	assert.Equal(t, "Anonymous", b.Requester)
	assert.Equal(t, models.RoleStudent, b.Role)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, []events.Type{events.BookingCreated, events.Notification}, rec.types())

	notifs := svc.ListNotifications()
	require.NotEmpty(t, notifs)
	assert.Equal(t, "New booking Classroom Booking", notifs[0].Message)
	assert.Equal(t, models.KindConfirmation, notifs[0].Kind)
}

func TestCreateBooking_TeacherAutoApproved(t *testing.T) {
	svc, _ := newTestService(t, false)

	b, err := svc.CreateBooking(BookingInput{RoomID: "r", Role: models.RoleTeacher, Start: hm(9, 0), End: hm(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, b.Status)
}

func TestCreateBooking_Conflict(t *testing.T) {
	svc, rec := newTestService(t, true)
	before := len(svc.Store().Bookings())

	_, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Start: hm(11, 0), End: hm(13, 0)})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "b-1", conflict.Conflicts[0].ID)
	require.Len(t, conflict.Alternatives, 3)
	assert.Equal(t, hm(12, 0), conflict.Alternatives[0].Start)
	assert.Len(t, svc.Store().Bookings(), before)
	assert.Empty(t, rec.types())
}

func TestCreateBooking_TouchingBoundary(t *testing.T) {
	svc, _ := newTestService(t, true)

	_, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Start: hm(12, 0), End: hm(13, 0)})
	assert.NoError(t, err)
}

func TestCreateBooking_Validation(t *testing.T) {
	svc, _ := newTestService(t, false)

	tests := []struct {
		name string
		in   BookingInput
		want error
	}{
		{"end before start", BookingInput{RoomID: "r", Start: hm(10, 0), End: hm(9, 0)}, ErrInvalidInterval},
		{"empty interval", BookingInput{RoomID: "r", Start: hm(10, 0), End: hm(10, 0)}, ErrInvalidInterval},
		{"missing room", BookingInput{Start: hm(9, 0), End: hm(10, 0)}, ErrInvalidBooking},
		{"bad role", BookingInput{RoomID: "r", Role: "guest", Start: hm(9, 0), End: hm(10, 0)}, ErrInvalidBooking},
		{"bad status", BookingInput{RoomID: "r", Status: "done", Start: hm(9, 0), End: hm(10, 0)}, ErrInvalidBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBooking(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestCreateBooking_ConcurrentSameWindow(t *testing.T) {
	svc, _ := newTestService(t, false)

	const workers = 24
	var wg sync.WaitGroup
	var ok, conflicted int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Role: models.RoleTeacher, Start: hm(14, 0), End: hm(15, 0)})
			if err == nil {
				atomic.AddInt64(&ok, 1)
			} else {
				atomic.AddInt64(&conflicted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), ok)
	assert.Equal(t, int64(workers-1), conflicted)
}

func TestUpdateBooking(t *testing.T) {
	svc, rec := newTestService(t, true)

	t.Run("own window excluded", func(t *testing.T) {
		start, end := hm(10, 30), hm(11, 30)
		b, err := svc.UpdateBooking("b-1", store.BookingPatch{Start: &start, End: &end})
		require.NoError(t, err)
		assert.Equal(t, start, b.Start)
	})

	t.Run("conflict with another booking", func(t *testing.T) {
		other, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Role: models.RoleTeacher, Start: hm(13, 0), End: hm(14, 0)})
		require.NoError(t, err)

		start := hm(11, 0)
		_, err = svc.UpdateBooking(other.ID, store.BookingPatch{Start: &start})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "b-1", conflict.Conflicts[0].ID)

		stored, err := svc.GetBooking(other.ID)
		require.NoError(t, err)
		assert.Equal(t, hm(13, 0), stored.Start)
	})

	t.Run("invalid interval", func(t *testing.T) {
		end := hm(9, 0)
		_, err := svc.UpdateBooking("b-1", store.BookingPatch{End: &end})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("title only skips check", func(t *testing.T) {
		title := "Renamed"
		b, err := svc.UpdateBooking("b-1", store.BookingPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", b.Title)
	})

	t.Run("not found", func(t *testing.T) {
		title := "x"
		_, err := svc.UpdateBooking("missing", store.BookingPatch{Title: &title})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	assert.Contains(t, rec.types(), events.BookingUpdated)
}

func TestUpdateBooking_ReactivationIsChecked(t *testing.T) {
	svc, _ := newTestService(t, true)

	b, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Start: hm(12, 0), End: hm(13, 0)})
	require.NoError(t, err)
	_, err = svc.CancelBooking(b.ID)
	require.NoError(t, err)

	taken, err := svc.CreateBooking(BookingInput{RoomID: "r-101", Start: hm(12, 0), End: hm(13, 0)})
	require.NoError(t, err)
	require.NotEqual(t, b.ID, taken.ID)

	approved := models.StatusApproved
	_, err = svc.UpdateBooking(b.ID, store.BookingPatch{Status: &approved})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDeleteBooking(t *testing.T) {
	svc, rec := newTestService(t, true)

	removed, err := svc.DeleteBooking("b-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", removed.ID)
	assert.Equal(t, []events.Type{events.BookingDeleted}, rec.types())

	_, err = svc.DeleteBooking("b-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		apply    func(*Service, string) (models.Booking, error)
		want     models.BookingStatus
		wantErr  error
		wantKind models.NotificationKind
	}{
		{"approve pending", models.RoleStudent, (*Service).ApproveBooking, models.StatusApproved, nil, models.KindConfirmation},
		{"approve approved", models.RoleTeacher, (*Service).ApproveBooking, "", ErrInvalidTransition, ""},
		{"reject pending", models.RoleStudent, (*Service).RejectBooking, models.StatusRejected, nil, models.KindCancellation},
		{"reject approved", models.RoleTeacher, (*Service).RejectBooking, models.StatusRejected, nil, models.KindCancellation},
		{"cancel approved", models.RoleAdmin, (*Service).CancelBooking, models.StatusCancelled, nil, models.KindCancellation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec := newTestService(t, false)
			b, err := svc.CreateBooking(BookingInput{RoomID: "r", Role: tt.role, Start: hm(9, 0), End: hm(10, 0)})
			require.NoError(t, err)

			got, err := tt.apply(svc, b.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.wantKind, svc.ListNotifications()[0].Kind)
			assert.Equal(t, []events.Type{
				events.BookingCreated, events.Notification,
				events.BookingUpdated, events.Notification,
			}, rec.types())
		})
	}

	t.Run("cancelled is final", func(t *testing.T) {
		svc, _ := newTestService(t, false)
		b, err := svc.CreateBooking(BookingInput{RoomID: "r", Start: hm(9, 0), End: hm(10, 0)})
		require.NoError(t, err)
		_, err = svc.CancelBooking(b.ID)
		require.NoError(t, err)

		_, err = svc.ApproveBooking(b.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = svc.CancelBooking(b.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("missing booking", func(t *testing.T) {
		svc, _ := newTestService(t, false)
		_, err := svc.ApproveBooking("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListBookings_Filters(t *testing.T) {
	svc, _ := newTestService(t, true)
	_, err := svc.CreateBooking(BookingInput{RoomID: "lab-1", Title: "Chemistry", Requester: "Dr. Smith", Start: hm(14, 0), End: hm(15, 0)})
	require.NoError(t, err)

	assert.Len(t, svc.ListBookings(BookingFilter{}), 2)
	assert.Len(t, svc.ListBookings(BookingFilter{RoomID: "lab-1"}), 1)
	assert.Len(t, svc.ListBookings(BookingFilter{Status: models.StatusApproved}), 1)
	assert.Len(t, svc.ListBookings(BookingFilter{Query: "smith"}), 1)
	assert.Len(t, svc.ListBookings(BookingFilter{Query: "EXAM"}), 1)
	assert.Len(t, svc.ListBookings(BookingFilter{From: hm(12, 0)}), 2)
	assert.Len(t, svc.ListBookings(BookingFilter{From: hm(12, 1)}), 1)
	assert.Len(t, svc.ListBookings(BookingFilter{To: hm(11, 0)}), 1)
}

func TestCheckConflictAndSuggest(t *testing.T) {
	svc, _ := newTestService(t, true)

	conflicts, err := svc.CheckConflict("r-101", hm(11, 0), hm(13, 0), "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	conflicts, err = svc.CheckConflict("r-101", hm(11, 0), hm(13, 0), "b-1")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	_, err = svc.CheckConflict("r-101", hm(13, 0), hm(11, 0), "")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	windows, err := svc.SuggestAlternatives("r-101", hm(11, 0), hm(13, 0), 3)
	require.NoError(t, err)
	assert.Len(t, windows, 3)

	windows, err = svc.SuggestAlternatives("r-101", hm(11, 0), hm(13, 0), 0)
	require.NoError(t, err)
	assert.Empty(t, windows)

	_, err = svc.SuggestAlternatives("r-101", hm(11, 0), hm(11, 0), 3)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
