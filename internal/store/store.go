package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"roombook/internal/events"
	"roombook/internal/models"
)

var (
	// ErrNotFound is returned when a record with the given ID does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an explicit ID is already taken.
	ErrDuplicateID = errors.New("duplicate id")
)

// Store is the in-memory booking store. All collections are guarded by a
// single RWMutex and handed out as copies.
type Store struct {
	mu sync.RWMutex

	rooms         []models.Room
	bookings      []models.Booking
	notifications []models.NotificationItem
	recurring     []models.RecurringBooking
	users         []models.User
	equipment     []models.Equipment

	bus   *events.EventBus
	now   func() time.Time
	newID func(prefix string) string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides ID generation. prefix is "b", "r", "n", "rb",
// "u" or "eq".
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(s *Store) { s.newID = gen }
}

// New constructs an empty store publishing on bus.
func New(bus *events.EventBus, opts ...Option) *Store {
	s := &Store{
		bus:   bus,
		now:   time.Now,
		newID: defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Subscribe registers a listener on the store's event bus.
func (s *Store) Subscribe(listener events.Listener) (unsubscribe func()) {
	return s.bus.Subscribe(listener)
}

// Broadcast delivers event to every current listener before returning.
// It must not be called while holding the store lock; Atomically callbacks
// should collect events and broadcast after returning.
func (s *Store) Broadcast(event events.Event) {
	s.bus.Publish(event)
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Atomically runs fn with exclusive access to the store. Reads and writes
// made through tx are consistent with each other, which makes a
// check-then-insert sequence safe against concurrent callers. fn must not
// call methods on the Store itself.
func (s *Store) Atomically(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Bookings returns a snapshot of all bookings in insertion order.
func (s *Store) Bookings() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBookings()
}

// Booking returns a single booking by ID.
func (s *Store) Booking(id string) (models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBooking(id)
}

// InsertBooking assigns a fresh ID and CreatedAt, applies the role's default
// status when none is set and appends the booking. No conflict check is made.
func (s *Store) InsertBooking(candidate models.Booking) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertBooking(candidate)
}

// UpdateBooking merges patch into the booking. No conflict check is made.
func (s *Store) UpdateBooking(id string, patch BookingPatch) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBooking(id, patch)
}

// DeleteBooking removes the booking and returns it.
func (s *Store) DeleteBooking(id string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteBooking(id)
}

func (s *Store) listBookings() []models.Booking {
	out := make([]models.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

func (s *Store) bookingIndex(id string) int {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) getBooking(id string) (models.Booking, error) {
	idx := s.bookingIndex(id)
	if idx < 0 {
		return models.Booking{}, ErrNotFound
	}
	return s.bookings[idx], nil
}

func (s *Store) insertBooking(b models.Booking) models.Booking {
	b.ID = s.newID("b")
	b.CreatedAt = s.now()
	if b.Status == "" {
		b.Status = models.DefaultStatusFor(b.Role)
	}
	s.bookings = append(s.bookings, b)
	return b
}

func (s *Store) updateBooking(id string, patch BookingPatch) (models.Booking, error) {
	idx := s.bookingIndex(id)
	if idx < 0 {
		return models.Booking{}, ErrNotFound
	}
	patch.apply(&s.bookings[idx])
	return s.bookings[idx], nil
}

func (s *Store) deleteBooking(id string) (models.Booking, error) {
	idx := s.bookingIndex(id)
	if idx < 0 {
		return models.Booking{}, ErrNotFound
	}
	removed := s.bookings[idx]
	s.bookings = append(s.bookings[:idx], s.bookings[idx+1:]...)
	return removed, nil
}

// Notifications returns all notifications, newest first.
func (s *Store) Notifications() []models.NotificationItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NotificationItem, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// PushNotification prepends a new unread notification.
func (s *Store) PushNotification(message string, kind models.NotificationKind) models.NotificationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushNotification(message, kind)
}

func (s *Store) pushNotification(message string, kind models.NotificationKind) models.NotificationItem {
	n := models.NotificationItem{
		ID:        s.newID("n"),
		Message:   message,
		CreatedAt: s.now(),
		Kind:      kind,
	}
	s.notifications = append([]models.NotificationItem{n}, s.notifications...)
	return n
}

// MarkNotificationsRead sets the read flag on the listed notifications and
// returns how many were found.
func (s *Store) MarkNotificationsRead(ids []string, read bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	marked := 0
	for i := range s.notifications {
		if _, ok := want[s.notifications[i].ID]; ok {
			s.notifications[i].Read = read
			marked++
		}
	}
	return marked
}

// RecurringBookings returns all recurring templates in insertion order.
func (s *Store) RecurringBookings() []models.RecurringBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RecurringBooking, len(s.recurring))
	copy(out, s.recurring)
	return out
}

// InsertRecurring stores a recurring template with a fresh ID.
func (s *Store) InsertRecurring(r models.RecurringBooking) models.RecurringBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRecurring(r)
}

func (s *Store) insertRecurring(r models.RecurringBooking) models.RecurringBooking {
	r.ID = s.newID("rb")
	r.CreatedAt = s.now()
	s.recurring = append(s.recurring, r)
	return r
}
