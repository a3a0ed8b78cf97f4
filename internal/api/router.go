package api

import (
	"net/http"
	"time"

	"github.com/example/printshop/internal/api/middleware"
	"github.com/example/printshop/internal/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig holds what the router needs beyond the handlers
type RouterConfig struct {
	Issuer       *session.Issuer
	SecureCookie bool
	Logger       *zap.Logger
	Timeout      time.Duration
}

func NewRouter(handlers *Handlers, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/health", handlers.Health)

	// Catalog and quotes need no session
	r.Get("/materials", handlers.GetMaterials)
	r.Get("/products", handlers.GetProducts)
	r.Post("/quotes", handlers.CreateQuote)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(cfg.Issuer, cfg.SecureCookie, logger.Named("session")))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCart)
			r.Delete("/", handlers.ClearCart)

			r.Post("/items", handlers.AddToCart)
			r.Patch("/items/{itemID}", handlers.UpdateCartItem)
			r.Delete("/items/{itemID}", handlers.RemoveFromCart)

			r.Get("/summary", handlers.GetSummary)
			r.Post("/coupon", handlers.ApplyCoupon)
			r.Delete("/coupon", handlers.RemoveCoupon)
		})
	})

	return r
}
