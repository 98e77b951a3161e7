package bot

import (
	"context"
	"fmt"
	"strings"

	"digital-menu/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// sender is the part of *tgbotapi.BotAPI the bots use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StaffNotifier pushes an order card to the staff chat (MESSAGE_TOKEN bot).
type StaffNotifier struct {
	api      sender
	chatID   int64
	currency string
}

func NewStaffNotifier(token string, chatID int64, currency string) (*StaffNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("MESSAGE_TOKEN not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("STAFF_CHAT_ID not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &StaffNotifier{api: api, chatID: chatID, currency: currency}, nil
}

func (n *StaffNotifier) Name() string { return "telegram" }

func (n *StaffNotifier) Deliver(_ context.Context, payload *models.OrderPayload, _ string) error {
	msg := tgbotapi.NewMessage(n.chatID, StaffCard(payload, n.currency))
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := n.api.Send(msg)
	return err
}

// StaffCard renders the order for the kitchen: room first, then lines and total.
func StaffCard(payload *models.OrderPayload, currency string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛎 <b>New order</b>\n🏠 Room: <b>%s</b>\n\n", escapeHTML(payload.RoomNumber))
	for _, l := range payload.Lines {
		fmt.Fprintf(&sb, "• %s × %d — %s%s\n", escapeHTML(l.ItemName), l.Quantity, currency,
			decimal.NewFromFloat(l.LineTotal).String())
	}
	fmt.Fprintf(&sb, "\n<b>Total: %s%s</b>", currency, decimal.NewFromFloat(payload.OrderTotal).String())
	return sb.String()
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
