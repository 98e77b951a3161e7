package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"digital-menu/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultCurrency = "₹"

// BuildOrder turns derived cart lines into the payload sent to the order log and
// the plain-text message handed to WhatsApp.
func BuildOrder(lines []CartLine, roomNumber, currency string) (*models.OrderPayload, string, error) {
	var present []CartLine
	for _, l := range lines {
		if l.Quantity > 0 {
			present = append(present, l)
		}
	}
	if len(present) == 0 {
		return nil, "", ErrEmptyCart
	}
	roomNumber = SingleLine(roomNumber)
	if roomNumber == "" {
		return nil, "", ErrMissingRoom
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	payload := &models.OrderPayload{RoomNumber: roomNumber, Lines: make([]models.OrderLine, 0, len(present))}
	total := decimal.Zero
	var sb strings.Builder
	fmt.Fprintf(&sb, "New order – Room %s\n", roomNumber)
	for _, l := range present {
		lineTotal := l.LineTotal()
		total = total.Add(lineTotal)
		name := SingleLine(l.Item.Name)
		payload.Lines = append(payload.Lines, models.OrderLine{
			ItemName:  name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.PriceOrZero(),
			LineTotal: lineTotal.InexactFloat64(),
		})
		fmt.Fprintf(&sb, "%d x %s – %s%s\n", l.Quantity, name, currency, lineTotal.String())
	}
	payload.OrderTotal = total.InexactFloat64()
	fmt.Fprintf(&sb, "Total: %s%s", currency, total.String())

	return payload, sb.String(), nil
}

var (
	orderLineRe  = regexp.MustCompile(`^(\d+) x (.+) – \D*?(\d+(?:\.\d+)?)$`)
	orderTotalRe = regexp.MustCompile(`^Total: \D*?(\d+(?:\.\d+)?)$`)
)

// ParseOrderText reads back the item lines and total of a message built by BuildOrder.
func ParseOrderText(text string) ([]models.OrderLine, float64, error) {
	var lines []models.OrderLine
	var total float64
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if m := orderTotalRe.FindStringSubmatch(raw); m != nil {
			t, err := decimal.NewFromString(m[1])
			if err != nil {
				return nil, 0, fmt.Errorf("parse total %q: %w", m[1], err)
			}
			total = t.InexactFloat64()
			continue
		}
		m := orderLineRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, 0, fmt.Errorf("parse quantity %q: %w", m[1], err)
		}
		lineTotal, err := decimal.NewFromString(m[3])
		if err != nil {
			return nil, 0, fmt.Errorf("parse line total %q: %w", m[3], err)
		}
		unit := decimal.Zero
		if qty > 0 {
			unit = lineTotal.Div(decimal.NewFromInt(int64(qty)))
		}
		lines = append(lines, models.OrderLine{
			ItemName:  m[2],
			Quantity:  qty,
			UnitPrice: unit.InexactFloat64(),
			LineTotal: lineTotal.InexactFloat64(),
		})
	}
	return lines, total, nil
}

// OrderSink receives a submitted order. Sinks are best-effort: a failure is
// logged and never blocks or rolls back the order.
type OrderSink interface {
	Name() string
	Deliver(ctx context.Context, payload *models.OrderPayload, text string) error
}

type CartStore interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, cartID string, cart *Cart) error
	Delete(ctx context.Context, cartID string) error
}

type MenuSource interface {
	AvailableItems(ctx context.Context) []models.MenuItem
}

type SubmittedOrder struct {
	Payload     *models.OrderPayload `json:"payload"`
	Text        string               `json:"text"`
	WhatsAppURL string               `json:"whatsapp_url"`
}

type OrderService struct {
	Menu     MenuSource
	Carts    CartStore
	Sinks    []OrderSink
	Link     func(text string) string
	Currency string
	Rooms    []string
	Log      *zap.Logger

	wg sync.WaitGroup
}

// Submit builds the order for a cart, fires the sinks without waiting for them,
// produces the WhatsApp link and clears the cart. Validation errors leave the
// cart untouched and reach no sink.
func (s *OrderService) Submit(ctx context.Context, cartID, roomNumber string) (*SubmittedOrder, error) {
	unlock := LockCart(cartID)
	defer unlock()

	cart, err := s.Carts.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	summary := DeriveCart(s.Menu.AvailableItems(ctx), cart.Quantities)
	payload, text, err := BuildOrder(summary.Lines, roomNumber, s.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoom(payload.RoomNumber); err != nil {
		return nil, err
	}

	for _, sink := range s.Sinks {
		s.deliverAsync(sink, payload, text)
	}

	link := ""
	if s.Link != nil {
		link = s.Link(text)
	}

	cart.Clear()
	if err := s.Carts.Save(ctx, cartID, cart); err != nil {
		s.Log.Error("failed to clear cart after order", zap.String("cart_id", cartID), zap.Error(err))
	}

	s.Log.Info("order submitted",
		zap.String("cart_id", cartID),
		zap.String("room", payload.RoomNumber),
		zap.Int("lines", len(payload.Lines)),
		zap.Float64("total", payload.OrderTotal),
	)
	return &SubmittedOrder{Payload: payload, Text: text, WhatsAppURL: link}, nil
}

func (s *OrderService) checkRoom(room string) error {
	if len(s.Rooms) == 0 {
		return nil
	}
	for _, r := range s.Rooms {
		if r == room {
			return nil
		}
	}
	return ErrUnknownRoom
}

func (s *OrderService) deliverAsync(sink OrderSink, payload *models.OrderPayload, text string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := sink.Deliver(context.Background(), payload, text); err != nil {
			s.Log.Warn("order sink failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight sink deliveries finish. Used on shutdown.
func (s *OrderService) Wait() {
	s.wg.Wait()
}
