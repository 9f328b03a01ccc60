package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CheckoutProcessor оформляет заказ; реализуется checkout.Service.
type CheckoutProcessor interface {
	ProcessOrder(ctx context.Context, cart *domain.Cart, paymentToken string) (*domain.Order, error)
}

// OrderReader читает сохранённые заказы.
type OrderReader interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// Options настраивает HTTP API.
type Options struct {
	// Orders - необязательная выборка заказов покупателя для GET /v1/orders.
	Orders         domain.OrderLister
	AllowedOrigins []string
	Logger         *log.Entry
}

// NewRouter собирает chi-роутер с API checkout.
func NewRouter(checkout CheckoutProcessor, reader OrderReader, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handlers{
		checkout: checkout,
		reader:   reader,
		lister:   opts.Orders,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/checkout", h.checkoutOrder)
		r.Get("/orders/{id}", h.getOrder)
		if h.lister != nil {
			r.Get("/orders", h.listOrders)
		}
	})

	return r
}
