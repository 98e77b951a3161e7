package models

// OrderLine is one entry of a submitted order.
type OrderLine struct {
	ItemName  string  `json:"itemName"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// OrderPayload is built once at submission time and never stored by the cart.
type OrderPayload struct {
	RoomNumber string      `json:"roomNumber"`
	OrderTotal float64     `json:"orderTotal"`
	Lines      []OrderLine `json:"lines"`
}

type Admin struct {
	ID    string
	Email string
}

type Session struct {
	Token   string
	AdminID string
	Email   string
}
