package api

import (
	"net/http"

	"digital-menu/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetCatalog handles GET /api/catalog?category=&veg=&sort=.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := services.ParseVegFilter(q.Get("veg"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mode, err := services.ParseSortMode(q.Get("sort"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view := h.Catalog.Load(r.Context()).View(q.Get("category"), filter, mode)
	writeJSON(w, http.StatusOK, view)
}

type roomsResponse struct {
	Rooms    []string `json:"rooms"`
	Currency string   `json:"currency"`
}

// GetRooms handles GET /api/rooms.
func (h *Handler) GetRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := h.Rooms
	if rooms == nil {
		rooms = []string{}
	}
	currency := h.Currency
	if currency == "" {
		currency = services.DefaultCurrency
	}
	writeJSON(w, http.StatusOK, roomsResponse{Rooms: rooms, Currency: currency})
}

type cartResponse struct {
	ID         string         `json:"id"`
	Quantities map[string]int `json:"quantities"`
	services.CartSummary
}

func (h *Handler) cartView(r *http.Request, cartID string, cart *services.Cart) cartResponse {
	items := h.Catalog.Load(r.Context()).Items
	return cartResponse{
		ID:          cartID,
		Quantities:  cart.Snapshot(),
		CartSummary: services.DeriveCart(items, cart.Quantities),
	}
}

// CreateCart handles POST /api/carts. Each browser tab keeps its own cart id.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	cart := services.NewCart()
	if err := h.Carts.Save(r.Context(), id, cart); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.cartView(r, id, cart))
}

// cartID returns the {id} path parameter when it is a cart id this server
// could have issued. Anything else is answered with 404 before any lock or
// store lookup.
func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, r, services.ErrNotFound)
		return "", false
	}
	return id, true
}

// GetCart handles GET /api/carts/{id}.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	cart, err := h.Carts.Load(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(r, id, cart))
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// AdjustCartItem handles POST /api/carts/{id}/items/{itemID} with {"delta": 1|-1}.
func (h *Handler) AdjustCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta != 1 && req.Delta != -1 {
		writeMessage(w, http.StatusBadRequest, "delta must be 1 or -1")
		return
	}

	unlock := services.LockCart(id)
	defer unlock()

	cart, err := h.Carts.Load(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	minQty := 1
	if item, ok := h.Catalog.FindAvailable(r.Context(), itemID); ok {
		minQty = item.EffectiveMinQty()
	} else if req.Delta > 0 {
		writeMessage(w, http.StatusNotFound, "item is not on the menu")
		return
	}
	// removing an item that left the menu still works, with the default floor

	cart.AdjustQuantity(itemID, req.Delta, minQty)
	if err := h.Carts.Save(r.Context(), id, cart); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(r, id, cart))
}

type orderRequest struct {
	RoomNumber string `json:"room_number"`
}

// SubmitOrder handles POST /api/carts/{id}/order.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := h.Orders.Submit(r.Context(), id, req.RoomNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
