package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/victusstore/backend/api/controllers"
	"github.com/victusstore/backend/api/middleware"
	checkoutsvc "github.com/victusstore/backend/internal/checkout"
	ordersvc "github.com/victusstore/backend/internal/orders"
	"github.com/victusstore/backend/pkg/config"
	"github.com/victusstore/backend/pkg/db"
	"github.com/victusstore/backend/pkg/logger"
	"github.com/victusstore/backend/pkg/redis"
)

// NewRouter assembles the full HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry prometheus.Gatherer,
	checkoutService checkoutsvc.Service,
	ordersService *ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout/{cartId}", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Get("/user/{email}", controllers.OrdersByEmail(ordersService, logg))
		})
	})

	return r
}
