package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"digital-menu/models"
	"digital-menu/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// CatalogReader is satisfied by *services.CatalogService.
type CatalogReader interface {
	Load(ctx context.Context) *services.Catalog
	FindAvailable(ctx context.Context, itemID string) (models.MenuItem, bool)
}

// OrderSubmitter is satisfied by *services.OrderService.
type OrderSubmitter interface {
	Submit(ctx context.Context, cartID, roomNumber string) (*services.SubmittedOrder, error)
}

// Authenticator is satisfied by *services.AuthService.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*models.Admin, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, session *models.Session) error
	Session(ctx context.Context, token string) (*models.Session, error)
}

// AdminManager is satisfied by *services.AdminService.
type AdminManager interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Items(ctx context.Context) ([]models.MenuItem, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (string, error)
	UpdateCategory(ctx context.Context, id string, in models.CategoryInput) error
	DeleteCategory(ctx context.Context, id string) error
	CreateItem(ctx context.Context, in models.MenuItemInput, image io.Reader) (string, error)
	UpdateItem(ctx context.Context, id string, in models.MenuItemInput, image io.Reader) error
	ToggleItem(ctx context.Context, id string) (bool, error)
	DeleteItem(ctx context.Context, id string) error
}

type Handler struct {
	Catalog  CatalogReader
	Carts    services.CartStore
	Orders   OrderSubmitter
	Auth     Authenticator
	Admin    AdminManager
	Rooms    []string
	Currency string
	Log      *zap.Logger

	// UploadsDir is served at UploadsPath when images are stored locally.
	UploadsDir  string
	UploadsPath string
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.GetCatalog)
		r.Get("/rooms", h.GetRooms)

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.CreateCart)
			r.Get("/{id}", h.GetCart)
			r.Post("/{id}/items/{itemID}", h.AdjustCartItem)
			r.Post("/{id}/order", h.SubmitOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.Post("/signin", h.SignIn)

			r.Group(func(r chi.Router) {
				r.Use(h.requireSession)
				r.Post("/signout", h.SignOut)

				r.Get("/categories", h.ListCategories)
				r.Post("/categories", h.CreateCategory)
				r.Put("/categories/{id}", h.UpdateCategory)
				r.Delete("/categories/{id}", h.DeleteCategory)

				r.Get("/items", h.ListItems)
				r.Post("/items", h.CreateItem)
				r.Put("/items/{id}", h.UpdateItem)
				r.Post("/items/{id}/toggle", h.ToggleItem)
				r.Delete("/items/{id}", h.DeleteItem)
			})
		})
	})

	if h.UploadsDir != "" && h.UploadsPath != "" {
		prefix := "/" + strings.Trim(h.UploadsPath, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(h.UploadsDir)))
		r.Get(prefix+"/*", fs.ServeHTTP)
	}

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
