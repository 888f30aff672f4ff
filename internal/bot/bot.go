package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"roombook/internal/events"
	"roombook/internal/models"
	"roombook/internal/service"
)

const alertQueueSize = 128

var errQueueFull = errors.New("admin alert queue full")

// Bot is the admin-facing Telegram bot. It alerts admins about pending
// bookings and lets them approve or reject them from the chat.
type Bot struct {
	desk   BookingDesk
	tg     telegramClient
	admins []int64
	alerts chan models.Booking
	logger zerolog.Logger

	mu       sync.Mutex
	alerted  map[string]struct{}
	reminded map[adminReminder]struct{}
}

func New(token string, debug bool, desk BookingDesk, admins []int64, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = debug
	return newBot(&realTelegramClient{api: api}, desk, admins, logger)
}

func newBot(tg telegramClient, desk BookingDesk, admins []int64, logger zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	return &Bot{
		desk:   desk,
		tg:     tg,
		admins: admins,
		alerts:   make(chan models.Booking, alertQueueSize),
		logger:   logger.With().Str("component", "bot").Logger(),
		alerted:  make(map[string]struct{}),
		reminded: make(map[adminReminder]struct{}),
	}, nil
}

// Listener queues an admin alert whenever a booking becomes pending,
// including occurrences generated from a recurring template. Sending happens
// on the bot's own goroutine so publishers never wait on Telegram.
func (b *Bot) Listener() events.Listener {
	return func(event events.Event) error {
		switch event.Type {
		case events.BookingCreated, events.BookingUpdated:
			booking, ok := event.Payload.(models.Booking)
			if !ok {
				return nil
			}
			return b.track(booking)
		case events.BookingDeleted:
			if booking, ok := event.Payload.(models.Booking); ok {
				b.forgetAlert(booking.ID)
			}
		case events.RecurringCreated:
			p, ok := event.Payload.(map[string]any)
			if !ok {
				return nil
			}
			bookings, _ := p["bookings"].([]models.Booking)
			var errs []error
			for _, booking := range bookings {
				if err := b.track(booking); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}
		return nil
	}
}

// track queues an alert the first time booking is seen pending and forgets
// it once a decision moves it elsewhere.
func (b *Bot) track(booking models.Booking) error {
	if booking.Status != models.StatusPending {
		b.forgetAlert(booking.ID)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.alerted[booking.ID]; ok {
		return nil
	}
	select {
	case b.alerts <- booking:
		b.alerted[booking.ID] = struct{}{}
		return nil
	default:
		return errQueueFull
	}
}

func (b *Bot) forgetAlert(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.alerted, id)
}

// Start polls Telegram updates and drains the alert queue until ctx ends.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	defer b.tg.StopReceivingUpdates()
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("admin bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case booking := <-b.alerts:
			b.alertAdmins(booking)
		case update, ok := <-updates:
			if !ok {
				return
			}
			l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "This bot is reserved for booking administrators.")
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "pending":
		b.renderPending(pageParams{ChatID: msg.Chat.ID})
	case "rooms":
		b.sendRooms(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Unknown command. "+helpText)
	}
}

const helpText = "Commands: /pending lists bookings awaiting a decision, /rooms lists rooms."

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	l := zerolog.Ctx(ctx)
	if err := b.answerCallback(cq.ID); err != nil {
		l.Warn().Err(err).Msg("answer callback")
	}
	if cq.Message == nil || !b.isAdmin(cq.From.ID) {
		return
	}
	chatID := cq.Message.Chat.ID

	switch {
	case strings.HasPrefix(cq.Data, pagePrefix):
		var page int
		if _, err := fmt.Sscanf(strings.TrimPrefix(cq.Data, pagePrefix), "%d", &page); err != nil {
			return
		}
		b.renderPending(pageParams{ChatID: chatID, MessageID: cq.Message.MessageID, Page: page})
	case strings.HasPrefix(cq.Data, showPrefix):
		id := strings.TrimPrefix(cq.Data, showPrefix)
		booking, err := b.desk.GetBooking(id)
		if err != nil {
			b.reply(chatID, "Booking "+id+" not found.")
			return
		}
		b.sendDecisionMessage(chatID, booking)
	case strings.HasPrefix(cq.Data, approvePrefix):
		b.decide(ctx, chatID, cq.From, strings.TrimPrefix(cq.Data, approvePrefix), b.desk.ApproveBooking)
	case strings.HasPrefix(cq.Data, rejectPrefix):
		b.decide(ctx, chatID, cq.From, strings.TrimPrefix(cq.Data, rejectPrefix), b.desk.RejectBooking)
	}
}

func (b *Bot) decide(ctx context.Context, chatID int64, from *tgbotapi.User, id string, op func(string) (models.Booking, error)) {
	booking, err := op(id)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("booking_id", id).Msg("admin decision failed")
		b.reply(chatID, fmt.Sprintf("Could not update booking %s: %v", id, err))
		return
	}
	zerolog.Ctx(ctx).Info().
		Int64("admin_id", from.ID).
		Str("booking_id", id).
		Str("status", string(booking.Status)).
		Msg("admin decision applied")
	b.reply(chatID, fmt.Sprintf("Booking %s is now %s.", booking.ID, booking.Status))
}

func (b *Bot) alertAdmins(booking models.Booking) {
	for _, chatID := range b.admins {
		b.sendDecisionMessage(chatID, booking)
	}
}

func (b *Bot) sendDecisionMessage(chatID int64, booking models.Booking) {
	msg := tgbotapi.NewMessage(chatID, formatBooking(booking))
	if booking.Status == models.StatusPending {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Approve", approvePrefix+booking.ID),
				tgbotapi.NewInlineKeyboardButtonData("❌ Reject", rejectPrefix+booking.ID),
			),
		)
	}
	b.send(msg)
}

func (b *Bot) sendRooms(chatID int64) {
	rooms := b.desk.ListRooms(service.RoomFilter{})
	if len(rooms) == 0 {
		b.reply(chatID, "No rooms configured.")
		return
	}
	var sb strings.Builder
	for _, r := range rooms {
		fmt.Fprintf(&sb, "%s (%s), %s, %d seats", r.Name, r.ID, r.Building, r.Capacity)
		if len(r.Equipment) > 0 {
			fmt.Fprintf(&sb, ": %s", strings.Join(r.Equipment, ", "))
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

// SendDocument uploads a file to every admin.
func (b *Bot) SendDocument(name string, data []byte, caption string) error {
	var errs []error
	for _, chatID := range b.admins {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
		doc.Caption = caption
		if _, err := b.tg.Send(doc); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %d: %w", name, chatID, err))
		}
	}
	return errors.Join(errs...)
}

func formatBooking(bk models.Booking) string {
	text := fmt.Sprintf(
		"📌 Booking %s\n"+
			"🚪 Room: %s\n"+
			"📅 Date: %s\n"+
			"⏱ Time: %s-%s\n"+
			"📝 Title: %s\n"+
			"👤 Requester: %s (%s)\n"+
			"🔖 Status: %s",
		bk.ID, bk.RoomID, bk.Start.Format("2006-01-02"),
		bk.Start.Format("15:04"), bk.End.Format("15:04"),
		bk.Title, bk.Requester, bk.Role, bk.Status,
	)
	if bk.Purpose != "" {
		text += "\n💬 Purpose: " + bk.Purpose
	}
	return text
}

func (b *Bot) isAdmin(id int64) bool {
	for _, admin := range b.admins {
		if admin == id {
			return true
		}
	}
	return false
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		b.logger.Error().Err(err).Msg("telegram send failed")
	}
}
