package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombook/internal/models"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type staticSchedule struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (s *staticSchedule) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

func (s *staticSchedule) set(bookings ...models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = bookings
}

// MockNotifier records reminders and fails the first failures calls.
type MockNotifier struct {
	mu       sync.Mutex
	sent     []string
	failures []error
}

func (m *MockNotifier) SendReminder(_ context.Context, b models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}
	m.sent = append(m.sent, b.ID)
	return nil
}

func (m *MockNotifier) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func fastSenderConfig() ReminderSenderConfig {
	return ReminderSenderConfig{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Retry:       RetryConfig{MaxRetries: 2, RetryDelays: []time.Duration{time.Millisecond}},
	}
}

func booking(id string, start time.Time, status models.BookingStatus) models.Booking {
	return models.Booking{ID: id, RoomID: "r-101", Title: "Class " + id, Start: start, End: start.Add(time.Hour), Status: status}
}

func TestServiceRemindsApprovedBookingsWithinLead(t *testing.T) {
	schedule := &staticSchedule{}
	schedule.set(
		booking("soon", base.Add(20*time.Minute), models.StatusApproved),
		booking("edge", base.Add(30*time.Minute), models.StatusApproved),
		booking("later", base.Add(31*time.Minute), models.StatusApproved),
		booking("pending", base.Add(10*time.Minute), models.StatusPending),
		booking("started", base, models.StatusApproved),
	)
	notifier := &MockNotifier{}
	sender := NewReminderSender(fastSenderConfig(), nil, zerolog.New(io.Discard), notifier)
	svc := NewService(Config{Lead: 30 * time.Minute}, schedule, sender, func() time.Time { return base }, nil, zerolog.New(io.Discard))

	assert.Equal(t, 2, svc.CheckNow(t.Context()))
	assert.ElementsMatch(t, []string{"soon", "edge"}, notifier.Sent())

	// Already reminded.
	assert.Equal(t, 0, svc.CheckNow(t.Context()))
}

func TestServiceRemindsAgainAfterReschedule(t *testing.T) {
	schedule := &staticSchedule{}
	schedule.set(booking("b", base.Add(10*time.Minute), models.StatusApproved))
	notifier := &MockNotifier{}
	sender := NewReminderSender(fastSenderConfig(), nil, zerolog.New(io.Discard), notifier)
	svc := NewService(Config{}, schedule, sender, func() time.Time { return base }, nil, zerolog.New(io.Discard))

	require.Equal(t, 1, svc.CheckNow(t.Context()))

	schedule.set(booking("b", base.Add(20*time.Minute), models.StatusApproved))
	assert.Equal(t, 1, svc.CheckNow(t.Context()))
	assert.Equal(t, []string{"b", "b"}, notifier.Sent())
}

func TestServiceRetriesFailedReminderOnNextCheck(t *testing.T) {
	schedule := &staticSchedule{}
	schedule.set(booking("b", base.Add(10*time.Minute), models.StatusApproved))
	timeout := errors.New("timeout")
	notifier := &MockNotifier{failures: []error{timeout, timeout, timeout}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")
	sender := NewReminderSender(fastSenderConfig(), metrics, zerolog.New(io.Discard), notifier)
	svc := NewService(Config{}, schedule, sender, func() time.Time { return base }, metrics, zerolog.New(io.Discard))

	assert.Equal(t, 0, svc.CheckNow(t.Context()))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RemindersSentTotal.WithLabelValues("failed")))

	assert.Equal(t, 1, svc.CheckNow(t.Context()))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RemindersSentTotal.WithLabelValues("sent")))
	assert.Equal(t, []string{"b"}, notifier.Sent())
}

func TestServiceDoesNotRepeatDeliveredNotifiers(t *testing.T) {
	schedule := &staticSchedule{}
	schedule.set(booking("b-1", base.Add(10*time.Minute), models.StatusApproved))

	t.Run("permanent failure is final", func(t *testing.T) {
		feed := &MockNotifier{}
		var blockedCalls int
		blocked := NotifierFunc(func(context.Context, models.Booking) error {
			blockedCalls++
			return &TelegramError{Code: 403, Message: "Forbidden: bot was blocked by the user"}
		})
		sender := NewReminderSender(fastSenderConfig(), nil, zerolog.New(io.Discard), feed, blocked)
		svc := NewService(Config{}, schedule, sender, func() time.Time { return base }, nil, zerolog.New(io.Discard))

		for range 5 {
			svc.CheckNow(t.Context())
		}
		assert.Equal(t, []string{"b-1"}, feed.Sent())
		assert.Equal(t, 1, blockedCalls)
		assert.Empty(t, svc.Due())
	})

	t.Run("transient failure retries only the failing notifier", func(t *testing.T) {
		feed := &MockNotifier{}
		timeout := errors.New("timeout")
		flaky := &MockNotifier{failures: []error{timeout, timeout, timeout}}
		sender := NewReminderSender(fastSenderConfig(), nil, zerolog.New(io.Discard), feed, flaky)
		svc := NewService(Config{}, schedule, sender, func() time.Time { return base }, nil, zerolog.New(io.Discard))

		assert.Equal(t, 0, svc.CheckNow(t.Context()))
		assert.Equal(t, []string{"b-1"}, feed.Sent())
		assert.Empty(t, flaky.Sent())

		assert.Equal(t, 1, svc.CheckNow(t.Context()))
		assert.Equal(t, 0, svc.CheckNow(t.Context()))
		assert.Equal(t, []string{"b-1"}, feed.Sent())
		assert.Equal(t, []string{"b-1"}, flaky.Sent())
	})
}

func TestSenderSkipsFinishedNotifiers(t *testing.T) {
	first, second := &MockNotifier{}, &MockNotifier{}
	s := NewReminderSender(fastSenderConfig(), nil, zerolog.New(io.Discard), first, second)

	errs := s.Send(t.Context(), booking("b", base, models.StatusApproved), func(i int) bool { return i == 0 })
	assert.Equal(t, []error{nil, nil}, errs)
	assert.Empty(t, first.Sent())
	assert.Equal(t, []string{"b"}, second.Sent())
	assert.Equal(t, 2, s.Len())

	assert.True(t, Final(nil))
	assert.True(t, Final(fmt.Errorf("%w: blocked", ErrPermanent)))
	assert.False(t, Final(errors.New("timeout")))
}

func TestSendWithRetry(t *testing.T) {
	logger := zerolog.New(io.Discard)
	b := booking("b", base, models.StatusApproved)

	t.Run("transient errors are retried", func(t *testing.T) {
		n := &MockNotifier{failures: []error{errors.New("timeout"), errors.New("timeout")}}
		s := NewReminderSender(fastSenderConfig(), nil, logger)
		require.NoError(t, s.SendWithRetry(t.Context(), n, b))
		assert.Equal(t, []string{"b"}, n.Sent())
	})

	t.Run("retries are bounded", func(t *testing.T) {
		boom := errors.New("timeout")
		n := &MockNotifier{failures: []error{boom, boom, boom}}
		s := NewReminderSender(fastSenderConfig(), nil, logger)
		err := s.SendWithRetry(t.Context(), n, b)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, n.Sent())
	})

	t.Run("bad request is permanent", func(t *testing.T) {
		n := &MockNotifier{failures: []error{&TelegramError{Code: 400, Message: "Bad Request"}}}
		s := NewReminderSender(fastSenderConfig(), nil, logger)
		err := s.SendWithRetry(t.Context(), n, b)
		assert.ErrorIs(t, err, ErrPermanent)
		tgErr, ok := IsTelegramError(err)
		require.True(t, ok)
		assert.Equal(t, 400, tgErr.Code)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		cfg := fastSenderConfig()
		cfg.Retry.RetryDelays = []time.Duration{time.Hour}
		n := &MockNotifier{failures: []error{&TelegramError{Code: 429, RetryAfter: 3600}}}
		s := NewReminderSender(cfg, nil, logger)
		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.SendWithRetry(ctx, n, b), context.DeadlineExceeded)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	assert.False(t, rl.TryAcquire())
	assert.Less(t, rl.Available(), 1.0)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

type announcer struct {
	texts []string
}

func (a *announcer) Announce(_ context.Context, text string) error {
	a.texts = append(a.texts, text)
	return nil
}

func TestDigest(t *testing.T) {
	text := Digest([]models.Booking{
		booking("late", base.Add(5*time.Hour), models.StatusApproved),
		booking("early", base.Add(-time.Hour), models.StatusApproved),
		booking("p", base.Add(time.Hour), models.StatusPending),
		booking("tomorrow", base.Add(24*time.Hour), models.StatusApproved),
		booking("gone", base, models.StatusCancelled),
	}, base)

	assert.Contains(t, text, "Mon 2025-03-10")
	assert.Contains(t, text, "08:00-09:00 r-101: Class early")
	assert.Contains(t, text, "14:00-15:00 r-101: Class late")
	assert.NotContains(t, text, "Class tomorrow")
	assert.NotContains(t, text, "Class gone")
	assert.Contains(t, text, "Pending decisions: 1")
	assert.Less(t, strings.Index(text, "Class early"), strings.Index(text, "Class late"))
}

func TestSchedulerRunsOncePerDay(t *testing.T) {
	clock := base.Add(-3 * time.Hour) // 06:00
	a := &announcer{}
	schedule := &staticSchedule{}
	sched, err := NewScheduler(SchedulerConfig{DailyHour: 7}, schedule, a, func() time.Time { return clock }, nil, zerolog.New(io.Discard))
	require.NoError(t, err)

	assert.False(t, sched.checkAndRun(t.Context()))
	clock = clock.Add(90 * time.Minute)
	assert.True(t, sched.checkAndRun(t.Context()))
	assert.False(t, sched.checkAndRun(t.Context()))
	clock = clock.Add(24 * time.Hour)
	assert.True(t, sched.checkAndRun(t.Context()))
	assert.Len(t, a.texts, 2)
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{Timezone: "Mars/Olympus"}, &staticSchedule{}, &announcer{}, nil, nil, zerolog.New(io.Discard))
	assert.Error(t, err)
}
