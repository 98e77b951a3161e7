package models

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// MenuItem mirrors a menu_items row. Price is nil when the item has no listed price.
type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Veg         bool      `json:"veg"`
	CategoryID  *string   `json:"category_id,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Available   bool      `json:"available"`
	MinQty      int       `json:"min_qty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EffectiveMinQty is the floor used by the cart: unset or non-positive means 1.
func (m MenuItem) EffectiveMinQty() int {
	if m.MinQty <= 0 {
		return 1
	}
	return m.MinQty
}

func (m MenuItem) PriceOrZero() float64 {
	if m.Price == nil {
		return 0
	}
	return *m.Price
}

type CategoryInput struct {
	Name      string
	SortOrder int
}

type MenuItemInput struct {
	Name        string
	Description *string
	Price       *float64
	Veg         bool
	CategoryID  *string
	ImageURL    *string
	Available   bool
	MinQty      int
}
