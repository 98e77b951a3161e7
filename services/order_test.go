package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"digital-menu/models"

	"go.uber.org/zap"
)

func TestBuildOrder_TotalsAndText(t *testing.T) {
	lines := []CartLine{
		{Item: priced("a", "Paneer Tikka", 100, true), Quantity: 2},
		{Item: priced("b", "Butter Chicken", 250, false), Quantity: 1},
	}
	payload, text, err := BuildOrder(lines, "4", "")
	if err != nil {
		t.Fatalf("BuildOrder: %v", err)
	}
	if payload.OrderTotal != 450 || payload.RoomNumber != "4" || len(payload.Lines) != 2 {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Lines[0].ItemName != "Paneer Tikka" || payload.Lines[0].UnitPrice != 100 || payload.Lines[0].LineTotal != 200 {
		t.Errorf("line 0 = %+v", payload.Lines[0])
	}

	want := "New order – Room 4\n" +
		"2 x Paneer Tikka – ₹200\n" +
		"1 x Butter Chicken – ₹250\n" +
		"Total: ₹450"
	if text != want {
		t.Errorf("text =\n%s\nwant\n%s", text, want)
	}

	parsed, total, err := ParseOrderText(text)
	if err != nil {
		t.Fatalf("ParseOrderText: %v", err)
	}
	sum := 0.0
	for _, l := range parsed {
		sum += l.LineTotal
	}
	if len(parsed) != 2 || sum != 450 || total != 450 {
		t.Errorf("parsed lines %+v sum %v total %v", parsed, sum, total)
	}
}

func TestBuildOrder_RoundTripsAwkwardNames(t *testing.T) {
	lines := []CartLine{
		{Item: priced("a", "Dal\nTotal: ₹1", 100, true), Quantity: 2},
		{Item: priced("b", "  Mutton – Rogan\tJosh (spicy!) ", 12.25, false), Quantity: 3},
		{Item: priced("c", "Chai & Bun\r\n\u0007", 15, true), Quantity: 1},
	}
	payload, text, err := BuildOrder(lines, " 4\nB ", "₹")
	if err != nil {
		t.Fatal(err)
	}
	if payload.RoomNumber != "4 B" || !strings.HasPrefix(text, "New order – Room 4 B\n") {
		t.Errorf("room = %q, text = %q", payload.RoomNumber, text)
	}
	if got := strings.Count(text, "\n"); got != len(lines) {
		t.Errorf("text has %d newlines, want %d:\n%s", got, len(lines), text)
	}

	parsed, total, err := ParseOrderText(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != len(lines) {
		t.Fatalf("parsed %d lines from\n%s", len(parsed), text)
	}
	wantNames := []string{"Dal Total: ₹1", "Mutton – Rogan Josh (spicy!)", "Chai & Bun"}
	for i, l := range parsed {
		if l.ItemName != wantNames[i] || l.ItemName != payload.Lines[i].ItemName {
			t.Errorf("line %d name = %q, payload %q, want %q", i, l.ItemName, payload.Lines[i].ItemName, wantNames[i])
		}
		if l.Quantity != payload.Lines[i].Quantity || l.LineTotal != payload.Lines[i].LineTotal {
			t.Errorf("line %d = %+v, payload %+v", i, l, payload.Lines[i])
		}
	}
	if total != payload.OrderTotal || total != 251.75 {
		t.Errorf("total = %v, payload %v", total, payload.OrderTotal)
	}
}

func TestBuildOrder_Errors(t *testing.T) {
	one := []CartLine{{Item: priced("a", "A", 10, true), Quantity: 1}}
	tests := []struct {
		name  string
		lines []CartLine
		room  string
		want  error
	}{
		{"nil cart", nil, "4", ErrEmptyCart},
		{"only zero quantities", []CartLine{{Item: priced("a", "A", 10, true)}}, "4", ErrEmptyCart},
		{"empty cart beats missing room", nil, "", ErrEmptyCart},
		{"missing room", one, "", ErrMissingRoom},
		{"blank room", one, "   ", ErrMissingRoom},
		{"control-only room", one, "\n\t\u0000", ErrMissingRoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, text, err := BuildOrder(tt.lines, tt.room, "₹")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if payload != nil || text != "" {
				t.Errorf("got output on error: %+v %q", payload, text)
			}
		})
	}
}

func TestBuildOrder_UnpricedAndDecimalPrices(t *testing.T) {
	lines := []CartLine{
		{Item: models.MenuItem{ID: "w", Name: "Water"}, Quantity: 2},
		{Item: priced("t", "Tea", 12.5, true), Quantity: 3},
	}
	payload, text, err := BuildOrder(lines, "12B", "$")
	if err != nil {
		t.Fatal(err)
	}
	if payload.OrderTotal != 37.5 {
		t.Errorf("total = %v, want 37.5", payload.OrderTotal)
	}
	if !strings.Contains(text, "2 x Water – $0\n") || !strings.Contains(text, "3 x Tea – $37.5\n") {
		t.Errorf("text = %q", text)
	}
	if !strings.HasSuffix(text, "Total: $37.5") {
		t.Errorf("text = %q", text)
	}
}

type memCartStore struct {
	mu    sync.Mutex
	carts map[string]map[string]int
	saves int
}

func (m *memCartStore) Load(_ context.Context, id string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := NewCart()
	for k, v := range q {
		c.Quantities[k] = v
	}
	return c, nil
}

func (m *memCartStore) Save(_ context.Context, id string, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.carts[id] = c.Snapshot()
	return nil
}

func (m *memCartStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

type staticMenu []models.MenuItem

func (s staticMenu) AvailableItems(context.Context) []models.MenuItem { return s }

type countingSink struct {
	name string
	err  error

	mu       sync.Mutex
	payloads []*models.OrderPayload
}

func (s *countingSink) Name() string { return s.name }

func (s *countingSink) Deliver(_ context.Context, p *models.OrderPayload, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func newOrderService(quantities map[string]int, rooms []string, sinks ...OrderSink) (*OrderService, *memCartStore) {
	store := &memCartStore{carts: map[string]map[string]int{"cart-1": quantities}}
	return &OrderService{
		Menu: staticMenu{
			priced("a", "Paneer Tikka", 100, true),
			priced("b", "Butter Chicken", 250, false),
		},
		Carts: store,
		Sinks: sinks,
		Link:  func(text string) string { return "link:" + text },
		Rooms: rooms,
		Log:   zap.NewNop(),
	}, store
}

func TestOrderService_Submit(t *testing.T) {
	webhook := &countingSink{name: "webhook"}
	failing := &countingSink{name: "broken", err: errors.New("503")}
	svc, store := newOrderService(map[string]int{"a": 2, "b": 1}, []string{"4", "5"}, webhook, failing)

	order, err := svc.Submit(context.Background(), "cart-1", "4")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	svc.Wait()

	if order.Payload.OrderTotal != 450 {
		t.Errorf("total = %v", order.Payload.OrderTotal)
	}
	if order.WhatsAppURL != "link:"+order.Text {
		t.Errorf("link = %q", order.WhatsAppURL)
	}
	if webhook.count() != 1 || failing.count() != 1 {
		t.Errorf("sink deliveries = %d, %d; want 1, 1", webhook.count(), failing.count())
	}
	cart, _ := store.Load(context.Background(), "cart-1")
	if !cart.IsEmpty() {
		t.Errorf("cart not cleared: %v", cart.Quantities)
	}
}

func TestOrderService_SubmitEmptyCartReachesNoSink(t *testing.T) {
	sink := &countingSink{name: "webhook"}
	svc, store := newOrderService(map[string]int{}, nil, sink)

	_, err := svc.Submit(context.Background(), "cart-1", "4")
	svc.Wait()
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if sink.count() != 0 {
		t.Errorf("sink called %d times", sink.count())
	}
	if store.saves != 0 {
		t.Errorf("cart saved %d times on failure", store.saves)
	}
}

func TestOrderService_SubmitRoomChecks(t *testing.T) {
	sink := &countingSink{name: "webhook"}
	svc, _ := newOrderService(map[string]int{"a": 1}, []string{"4"}, sink)

	if _, err := svc.Submit(context.Background(), "cart-1", ""); !errors.Is(err, ErrMissingRoom) {
		t.Errorf("missing room err = %v", err)
	}
	if _, err := svc.Submit(context.Background(), "cart-1", "99"); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("unknown room err = %v", err)
	}
	if _, err := svc.Submit(context.Background(), "missing", "4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing cart err = %v", err)
	}
	svc.Wait()
	if sink.count() != 0 {
		t.Errorf("sink called %d times", sink.count())
	}
}

func TestOrderService_SubmitIgnoresItemsNoLongerOnMenu(t *testing.T) {
	svc, _ := newOrderService(map[string]int{"a": 1, "gone": 4}, nil)
	order, err := svc.Submit(context.Background(), "cart-1", "7")
	if err != nil {
		t.Fatal(err)
	}
	if len(order.Payload.Lines) != 1 || order.Payload.OrderTotal != 100 {
		t.Errorf("payload = %+v", order.Payload)
	}
}

func TestParseOrderText_IgnoresNoise(t *testing.T) {
	lines, total, err := ParseOrderText("hello\n3 x Roti – ₹60\nTotal: ₹60\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].UnitPrice != 20 || total != 60 {
		t.Errorf("lines %+v total %v", lines, total)
	}
}
