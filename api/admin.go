package api

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"digital-menu/models"
	"digital-menu/services"

	"github.com/go-chi/chi/v5"
)

const (
	maxUploadBytes   = 10 << 20
	maxItemBodyBytes = maxUploadBytes + 1<<20
)

type ctxKey int

const sessionKey ctxKey = iota

func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		sess, err := h.Auth.Session(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /api/admin/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	admin, err := h.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": admin.ID, "email": admin.Email})
}

// SignIn handles POST /api/admin/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": sess.Token, "email": sess.Email})
}

// SignOut handles POST /api/admin/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(r.Context(), sessionFrom(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Admin.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

type categoryRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (req categoryRequest) input() models.CategoryInput {
	return models.CategoryInput{Name: req.Name, SortOrder: req.SortOrder}
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.Admin.CreateCategory(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Admin.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.input()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Admin.Items(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type itemRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Veg         bool     `json:"veg"`
	CategoryID  *string  `json:"category_id"`
	ImageURL    *string  `json:"image_url"`
	Available   *bool    `json:"available"`
	MinQty      int      `json:"min_qty"`
}

func (req itemRequest) input() models.MenuItemInput {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return models.MenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Veg:         req.Veg,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Available:   available,
		MinQty:      req.MinQty,
	}
}

// readItemForm accepts either a JSON body or the admin form as multipart with
// an optional "image" file. The returned closer must be called when done.
func readItemForm(w http.ResponseWriter, r *http.Request) (models.MenuItemInput, io.Reader, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxItemBodyBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req itemRequest
		if err := decodeJSON(r, &req); err != nil {
			return models.MenuItemInput{}, nil, noop, services.ErrInvalidInput
		}
		return req.input(), nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return models.MenuItemInput{}, nil, noop, services.ErrInvalidInput
	}
	in, err := itemFromForm(r)
	if err != nil {
		return in, nil, noop, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return in, nil, noop, nil
		}
		return in, nil, noop, services.ErrInvalidInput
	}
	return in, file, func() { file.Close() }, nil
}

func optionalField(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

func itemFromForm(r *http.Request) (models.MenuItemInput, error) {
	in := models.MenuItemInput{
		Name:        r.FormValue("name"),
		Description: optionalField(r, "description"),
		CategoryID:  optionalField(r, "category_id"),
		ImageURL:    optionalField(r, "image_url"),
		Veg:         formBool(r.FormValue("veg"), false),
		Available:   formBool(r.FormValue("available"), true),
	}
	if p := optionalField(r, "price"); p != nil {
		price, err := strconv.ParseFloat(*p, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return in, services.ErrInvalidInput
		}
		in.Price = &price
	}
	if q := optionalField(r, "min_qty"); q != nil {
		n, err := strconv.Atoi(*q)
		if err != nil {
			return in, services.ErrInvalidInput
		}
		in.MinQty = n
	}
	return in, nil
}

func formBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	in, image, done, err := readItemForm(w, r)
	defer done()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.Admin.CreateItem(r.Context(), in, image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	in, image, done, err := readItemForm(w, r)
	defer done()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Admin.UpdateItem(r.Context(), chi.URLParam(r, "id"), in, image); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	available, err := h.Admin.ToggleItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
