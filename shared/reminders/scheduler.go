package reminders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roombook/internal/models"
)

// SchedulerConfig holds configuration for the daily digest.
type SchedulerConfig struct {
	// Timezone the digest hour is interpreted in, e.g. "Europe/Berlin".
	Timezone string
	// DailyHour is the hour (0-23) when the digest goes out.
	DailyHour int
	// DailyMinute is the minute (0-59) when the digest goes out.
	DailyMinute int
	// CheckInterval is how often to check if it's time to run.
	CheckInterval time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Timezone:      "UTC",
		DailyHour:     7,
		DailyMinute:   0,
		CheckInterval: time.Minute,
	}
}

// Scheduler announces a digest of the day's schedule once a day.
type Scheduler struct {
	config    SchedulerConfig
	bookings  BookingSource
	announcer Announcer
	location  *time.Location
	now       func() time.Time
	metrics   *Metrics
	logger    zerolog.Logger

	mu          sync.Mutex
	lastRunDate string // YYYY-MM-DD of last run
}

func NewScheduler(config SchedulerConfig, bookings BookingSource, announcer Announcer, now func() time.Time, metrics *Metrics, logger zerolog.Logger) (*Scheduler, error) {
	if config.Timezone == "" {
		config.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("digest timezone: %w", err)
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		config:    config,
		bookings:  bookings,
		announcer: announcer,
		location:  loc,
		now:       now,
		metrics:   metrics,
		logger:    logger.With().Str("component", "digest").Logger(),
	}, nil
}

// Start runs the scheduler loop until ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Str("timezone", s.config.Timezone).
		Str("daily_time", s.formatTime()).
		Msg("digest scheduler started")

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("digest scheduler stopped")
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

// checkAndRun sends the digest once the configured time has passed today.
func (s *Scheduler) checkAndRun(ctx context.Context) bool {
	now := s.now().In(s.location)
	today := now.Format("2006-01-02")

	s.mu.Lock()
	alreadyRan := s.lastRunDate == today
	s.mu.Unlock()
	if alreadyRan {
		return false
	}

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), s.config.DailyHour, s.config.DailyMinute, 0, 0, s.location)
	if now.Before(scheduled) {
		return false
	}

	s.mu.Lock()
	s.lastRunDate = today
	s.mu.Unlock()

	if err := s.RunNow(ctx); err != nil {
		s.logger.Error().Err(err).Str("date", today).Msg("digest failed")
	}
	return true
}

// RunNow announces today's digest immediately.
func (s *Scheduler) RunNow(ctx context.Context) error {
	text := Digest(s.bookings.Bookings(), s.now().In(s.location))
	if err := s.announcer.Announce(ctx, text); err != nil {
		return err
	}
	s.metrics.IncDigests()
	s.logger.Info().Msg("daily digest sent")
	return nil
}

// Digest summarises the approved bookings on day and the number of
// bookings still awaiting a decision.
func Digest(bookings []models.Booking, day time.Time) string {
	loc := day.Location()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var today []models.Booking
	pending := 0
	for _, b := range bookings {
		if b.Status == models.StatusPending {
			pending++
		}
		if b.Status == models.StatusApproved && b.Overlaps(dayStart, dayEnd) {
			today = append(today, b)
		}
	}
	sort.SliceStable(today, func(i, j int) bool { return today[i].Start.Before(today[j].Start) })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Schedule for %s\n", dayStart.Format("Mon 2006-01-02"))
	if len(today) == 0 {
		sb.WriteString("No approved bookings today.\n")
	}
	for _, b := range today {
		fmt.Fprintf(&sb, "%s-%s %s: %s (%s)\n",
			b.Start.In(loc).Format("15:04"), b.End.In(loc).Format("15:04"), b.RoomID, b.Title, b.Requester)
	}
	fmt.Fprintf(&sb, "Pending decisions: %d", pending)
	return sb.String()
}

func (s *Scheduler) formatTime() string {
	return time.Date(2000, 1, 1, s.config.DailyHour, s.config.DailyMinute, 0, 0, time.UTC).Format("15:04")
}
