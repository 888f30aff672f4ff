package reminders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roombook/internal/models"
)

// Config holds configuration for the reminder service.
type Config struct {
	// CheckInterval is how often to look for bookings about to start.
	// Default: 1 minute.
	CheckInterval time.Duration

	// Lead is how long before the start a reminder goes out.
	// Default: 30 minutes.
	Lead time.Duration

	// MaxConcurrentNotifications limits parallel sends.
	// Default: 10.
	MaxConcurrentNotifications int
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:              time.Minute,
		Lead:                       30 * time.Minute,
		MaxConcurrentNotifications: 10,
	}
}

// Service reminds about approved bookings shortly before they start. Each
// notifier reminds a booking once per start time, so a rescheduled booking
// is reminded again. A notifier that fails transiently is retried on the
// next check without repeating the notifiers that already delivered.
type Service struct {
	config   Config
	bookings BookingSource
	sender   *ReminderSender
	now      func() time.Time
	metrics  *Metrics
	logger   zerolog.Logger

	mu   sync.Mutex
	sent map[delivery]time.Time
}

type delivery struct {
	bookingID string
	notifier  int
}

func NewService(config Config, bookings BookingSource, sender *ReminderSender, now func() time.Time, metrics *Metrics, logger zerolog.Logger) *Service {
	defaults := DefaultConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.Lead <= 0 {
		config.Lead = defaults.Lead
	}
	if config.MaxConcurrentNotifications <= 0 {
		config.MaxConcurrentNotifications = defaults.MaxConcurrentNotifications
	}
	if now == nil {
		now = time.Now
	}

	return &Service{
		config:   config,
		bookings: bookings,
		sender:   sender,
		now:      now,
		metrics:  metrics,
		logger:   logger.With().Str("component", "reminders").Logger(),
		sent:     make(map[delivery]time.Time),
	}
}

// Run checks immediately and then every CheckInterval until ctx ends.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Dur("lead", s.config.Lead).
		Msg("reminder service started")

	s.CheckNow(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder service stopped")
			return
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}

// Due returns approved bookings starting within (now, now+Lead] that some
// notifier has not yet reminded for their current start time.
func (s *Service) Due() []models.Booking {
	now := s.now()
	horizon := now.Add(s.config.Lead)

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []models.Booking
	for _, b := range s.bookings.Bookings() {
		if b.Status != models.StatusApproved {
			continue
		}
		if !b.Start.After(now) || b.Start.After(horizon) {
			continue
		}
		if s.remindedLocked(b) {
			continue
		}
		due = append(due, b)
	}
	return due
}

// CheckNow sends every due reminder and returns how many bookings every
// notifier has now finished with.
func (s *Service) CheckNow(ctx context.Context) int {
	s.forgetStarted()

	due := s.Due()
	s.metrics.SetDue(len(due))
	if len(due) == 0 {
		return 0
	}
	s.logger.Debug().Int("count", len(due)).Msg("bookings due for a reminder")

	sem := make(chan struct{}, s.config.MaxConcurrentNotifications)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, booking := range due {
		wg.Add(1)
		sem <- struct{}{}

		go func(b models.Booking) {
			defer wg.Done()
			defer func() { <-sem }()

			errs := s.sender.Send(ctx, b, func(i int) bool { return s.wasSent(b, i) })
			var failed []error
			for i, err := range errs {
				if !Final(err) {
					failed = append(failed, err)
					continue
				}
				if err != nil {
					s.logger.Warn().Err(err).Str("booking_id", b.ID).Int("notifier", i).Msg("giving up on reminder")
				}
				s.markSent(b, i)
			}
			if len(failed) > 0 {
				s.logger.Error().Err(errors.Join(failed...)).Str("booking_id", b.ID).Msg("failed to send reminder")
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			s.logger.Info().Str("booking_id", b.ID).Str("room_id", b.RoomID).Msg("reminder sent")
		}(booking)
	}
	wg.Wait()
	return delivered
}

func (s *Service) remindedLocked(b models.Booking) bool {
	for i := range s.sender.Len() {
		if at, ok := s.sent[delivery{b.ID, i}]; !ok || !at.Equal(b.Start) {
			return false
		}
	}
	return true
}

func (s *Service) wasSent(b models.Booking, notifier int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.sent[delivery{b.ID, notifier}]
	return ok && at.Equal(b.Start)
}

func (s *Service) markSent(b models.Booking, notifier int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[delivery{b.ID, notifier}] = b.Start
}

// forgetStarted drops bookkeeping for bookings that already started.
func (s *Service) forgetStarted() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, start := range s.sent {
		if !start.After(now) {
			delete(s.sent, key)
		}
	}
}
