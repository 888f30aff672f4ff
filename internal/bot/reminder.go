package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"roombook/internal/models"
	"roombook/shared/reminders"
)

// reminderRetention bounds how long per-admin reminder bookkeeping is kept
// behind the newest reminded start time.
const reminderRetention = 24 * time.Hour

type adminReminder struct {
	bookingID string
	start     time.Time
	chatID    int64
}

// SendReminder tells every admin that an approved booking is about to
// start. Admins that already got the reminder, or that rejected it for
// good, are skipped when the reminder is retried.
func (b *Bot) SendReminder(ctx context.Context, booking models.Booking) error {
	text := formatReminderMessage(booking)
	b.forgetReminders(booking.Start.Add(-reminderRetention))

	var transient, permanent []error
	for _, chatID := range b.admins {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := adminReminder{bookingID: booking.ID, start: booking.Start, chatID: chatID}
		if b.wasReminded(key) {
			continue
		}
		if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			err = asTelegramError(err)
			if tgErr, ok := reminders.IsTelegramError(err); ok && tgErr.Permanent() {
				b.logger.Warn().Err(err).Int64("chat_id", chatID).Str("booking_id", booking.ID).Msg("admin unreachable")
				b.markReminded(key)
				permanent = append(permanent, err)
				continue
			}
			transient = append(transient, err)
			continue
		}
		b.markReminded(key)
	}
	if len(transient) > 0 {
		return errors.Join(transient...)
	}
	return errors.Join(permanent...)
}

func (b *Bot) wasReminded(key adminReminder) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.reminded[key]
	return ok
}

func (b *Bot) markReminded(key adminReminder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reminded[key] = struct{}{}
}

func (b *Bot) forgetReminders(before time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key := range b.reminded {
		if key.start.Before(before) {
			delete(b.reminded, key)
		}
	}
}

// Announce sends text to every admin and joins the failures.
func (b *Bot) Announce(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range b.admins {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			errs = append(errs, asTelegramError(err))
		}
	}
	return errors.Join(errs...)
}

func formatReminderMessage(bk models.Booking) string {
	return fmt.Sprintf("⏰ Reminder: %s in %s starts at %s (%s).",
		bk.Title, bk.RoomID, bk.Start.Format("15:04"), bk.Requester)
}

func asTelegramError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return &reminders.TelegramError{
		Code:       apiErr.Code,
		Message:    apiErr.Message,
		RetryAfter: apiErr.RetryAfter,
	}
}
