package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"roombook/internal/models"
	"roombook/internal/service"
)

const (
	pagePrefix    = "pend:"
	showPrefix    = "show:"
	approvePrefix = "adm:approve:"
	rejectPrefix  = "adm:reject:"

	bookingsPerPage = 8
)

type pageParams struct {
	ChatID    int64
	MessageID int // 0 sends a new message
	Page      int
}

func (b *Bot) renderPending(params pageParams) {
	pending := b.desk.ListBookings(service.BookingFilter{Status: models.StatusPending})
	if len(pending) == 0 {
		b.reply(params.ChatID, "No bookings are awaiting a decision.")
		return
	}

	pages := (len(pending) + bookingsPerPage - 1) / bookingsPerPage
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Page >= pages {
		params.Page = pages - 1
	}
	startIdx := params.Page * bookingsPerPage
	endIdx := min(startIdx+bookingsPerPage, len(pending))

	var message strings.Builder
	message.WriteString("Pending bookings\n\n")
	fmt.Fprintf(&message, "Page %d of %d\n\n", params.Page+1, pages)

	current := pending[startIdx:endIdx]
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for i, bk := range current {
		fmt.Fprintf(&message, "%d. %s, %s %s-%s, %s\n",
			startIdx+i+1, bk.RoomID, bk.Start.Format("2006-01-02"),
			bk.Start.Format("15:04"), bk.End.Format("15:04"), bk.Title)
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", startIdx+i+1, bk.Title), showPrefix+bk.ID),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("%s%d", pagePrefix, params.Page-1)))
	}
	if endIdx < len(pending) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", pagePrefix, params.Page+1)))
	}
	if len(nav) > 0 {
		keyboard = append(keyboard, nav)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if params.MessageID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(params.ChatID, params.MessageID, message.String(), markup))
		return
	}
	msg := tgbotapi.NewMessage(params.ChatID, message.String())
	msg.ReplyMarkup = markup
	b.send(msg)
}
