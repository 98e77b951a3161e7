package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"digital-menu/db"
	"digital-menu/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Cart maps item id to quantity. A missing key means the item is not in the cart.
type Cart struct {
	Quantities map[string]int `json:"quantities"`
}

func NewCart() *Cart {
	return &Cart{Quantities: make(map[string]int)}
}

// AdjustQuantity applies delta to an item. The first add jumps straight to
// minQuantity, and so does an add on a line stored below a minimum raised
// since. Going below minQuantity removes the item instead of clamping.
func (c *Cart) AdjustQuantity(itemID string, delta, minQuantity int) {
	if itemID == "" {
		return
	}
	if c.Quantities == nil {
		c.Quantities = make(map[string]int)
	}
	if minQuantity <= 0 {
		minQuantity = 1
	}

	current, ok := c.Quantities[itemID]
	if delta > 0 && (!ok || current < minQuantity) {
		c.Quantities[itemID] = minQuantity
		return
	}

	next := current + delta
	if next < minQuantity {
		delete(c.Quantities, itemID)
		return
	}
	c.Quantities[itemID] = next
}

func (c *Cart) Quantity(itemID string) int {
	return c.Quantities[itemID]
}

func (c *Cart) Clear() {
	c.Quantities = make(map[string]int)
}

func (c *Cart) IsEmpty() bool {
	for _, q := range c.Quantities {
		if q > 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a copy that callers may keep after the cart changes.
func (c *Cart) Snapshot() map[string]int {
	out := make(map[string]int, len(c.Quantities))
	for id, q := range c.Quantities {
		out[id] = q
	}
	return out
}

type CartLine struct {
	Item     models.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Item.PriceOrZero()).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartSummary struct {
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"item_count"`
	Total     float64    `json:"total"`
}

// DeriveCart joins quantities against the catalog, keeping catalog order.
// Quantities for ids missing from the catalog are ignored. A stored quantity
// below the item's current minimum is shown at that minimum.
func DeriveCart(items []models.MenuItem, quantities map[string]int) CartSummary {
	summary := CartSummary{Lines: []CartLine{}}
	total := decimal.Zero
	for _, item := range items {
		q := quantities[item.ID]
		if q <= 0 {
			continue
		}
		if minQty := item.EffectiveMinQty(); q < minQty {
			q = minQty
		}
		line := CartLine{Item: item, Quantity: q}
		summary.Lines = append(summary.Lines, line)
		summary.ItemCount += q
		total = total.Add(line.LineTotal())
	}
	summary.Total = total.InexactFloat64()
	return summary
}

const cartLockStripes = 256

// cartLocks serializes read-modify-write cycles per cart id. Ids share a fixed
// set of stripes, so the table never grows with the number of carts.
var cartLocks [cartLockStripes]sync.Mutex

func cartStripe(cartID string) int {
	h := fnv.New32a()
	h.Write([]byte(cartID))
	return int(h.Sum32() % cartLockStripes)
}

func LockCart(cartID string) func() {
	mu := &cartLocks[cartStripe(cartID)]
	mu.Lock()
	return mu.Unlock
}

// PGCartStore keeps each browser tab's cart in the carts table.
type PGCartStore struct{}

func (PGCartStore) Load(ctx context.Context, cartID string) (*Cart, error) {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return nil, ErrNotFound
	}
	var raw []byte
	err = db.Pool.QueryRow(ctx, `SELECT quantities FROM carts WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cart := NewCart()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cart.Quantities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart quantities: %w", err)
		}
	}
	return cart, nil
}

func (PGCartStore) Save(ctx context.Context, cartID string, cart *Cart) error {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return invalidf("cart id %q", cartID)
	}
	raw, err := json.Marshal(cart.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal cart quantities: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO carts (id, quantities, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			quantities = $2,
			updated_at = now()`,
		id, raw,
	)
	return err
}

func (PGCartStore) Delete(ctx context.Context, cartID string) error {
	id, err := uuid.Parse(cartID)
	if err != nil {
		return nil
	}
	_, err = db.Pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	return err
}
