package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roombook/internal/models"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
		},
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.RetryDelays) == 0 {
		return 0
	}
	if attempt >= len(c.RetryDelays) {
		return c.RetryDelays[len(c.RetryDelays)-1]
	}
	return c.RetryDelays[attempt]
}

// TelegramError represents an error from Telegram API.
type TelegramError struct {
	Code       int
	Message    string
	RetryAfter int // seconds to wait before retrying (for 429 errors)
}

// Permanent reports whether retrying the same request cannot succeed.
func (e *TelegramError) Permanent() bool {
	return e.Code == 400 || e.Code == 403
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.Code, e.Message)
}

// IsTelegramError checks if the error is a TelegramError.
func IsTelegramError(err error) (*TelegramError, bool) {
	var tgErr *TelegramError
	if errors.As(err, &tgErr) {
		return tgErr, true
	}
	return nil, false
}

// ErrPermanent marks a delivery that must not be retried.
var ErrPermanent = errors.New("permanent delivery failure")

// ReminderSender delivers a reminder to every notifier with rate limiting
// and retry. A notifier that keeps failing does not stop the others.
type ReminderSender struct {
	notifiers   []Notifier
	rateLimiter *RateLimiter
	retryConfig RetryConfig
	metrics     *Metrics
	logger      zerolog.Logger
}

// ReminderSenderConfig holds configuration for the sender.
type ReminderSenderConfig struct {
	RateLimiter RateLimiterConfig
	Retry       RetryConfig
}

func DefaultReminderSenderConfig() ReminderSenderConfig {
	return ReminderSenderConfig{
		RateLimiter: DefaultRateLimiterConfig(),
		Retry:       DefaultRetryConfig(),
	}
}

func NewReminderSender(config ReminderSenderConfig, metrics *Metrics, logger zerolog.Logger, notifiers ...Notifier) *ReminderSender {
	return &ReminderSender{
		notifiers:   notifiers,
		rateLimiter: NewRateLimiter(config.RateLimiter),
		retryConfig: config.Retry,
		metrics:     metrics,
		logger:      logger.With().Str("component", "reminders").Logger(),
	}
}

// Len reports how many notifiers the sender fans out to.
func (s *ReminderSender) Len() int {
	return len(s.notifiers)
}

// Send delivers booking to every notifier that skip does not exclude. The
// result holds one error per notifier, nil for delivered or skipped ones.
func (s *ReminderSender) Send(ctx context.Context, booking models.Booking, skip func(notifier int) bool) []error {
	start := time.Now()
	defer func() { s.metrics.ObserveSendDuration(time.Since(start).Seconds()) }()

	errs := make([]error, len(s.notifiers))
	failed := false
	for i, n := range s.notifiers {
		if skip != nil && skip(i) {
			continue
		}
		if err := s.SendWithRetry(ctx, n, booking); err != nil {
			errs[i] = err
			failed = true
		}
	}
	if failed {
		s.metrics.IncSent("failed")
	} else {
		s.metrics.IncSent("sent")
	}
	return errs
}

// Final reports whether a delivery outcome needs no further attempts.
func Final(err error) bool {
	return err == nil || errors.Is(err, ErrPermanent)
}

// SendWithRetry sends one reminder through n, honouring Telegram's
// retry_after and giving up early on errors retrying cannot fix.
func (s *ReminderSender) SendWithRetry(ctx context.Context, n Notifier, booking models.Booking) error {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		err := n.SendReminder(ctx, booking)
		if err == nil {
			return nil
		}
		lastErr = err

		wait := s.retryConfig.delay(attempt)
		if tgErr, ok := IsTelegramError(err); ok {
			if tgErr.Permanent() {
				s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("reminder rejected by Telegram")
				return fmt.Errorf("%w: %w", ErrPermanent, err)
			}
			if tgErr.Code == 429 {
				if tgErr.RetryAfter > 0 {
					wait = time.Duration(tgErr.RetryAfter) * time.Second
				}
				s.logger.Info().
					Dur("retry_after", wait).
					Int("attempt", attempt).
					Str("booking_id", booking.ID).
					Msg("rate limited by Telegram, waiting")
			}
		}

		if attempt == s.retryConfig.MaxRetries {
			break
		}
		s.metrics.IncRetries()
		s.logger.Debug().
			Int("attempt", attempt+1).
			Int("max_retries", s.retryConfig.MaxRetries).
			Dur("delay", wait).
			Err(err).
			Msg("retrying reminder send")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Error().Err(lastErr).Str("booking_id", booking.ID).Msg("max retries exceeded for reminder")
	return fmt.Errorf("reminder %s: %w", booking.ID, lastErr)
}
