package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/retailstock-backend/api/controllers"
	deliverycontrollers "github.com/angelmondragon/retailstock-backend/api/controllers/deliveries"
	ordercontrollers "github.com/angelmondragon/retailstock-backend/api/controllers/orders"
	restockcontrollers "github.com/angelmondragon/retailstock-backend/api/controllers/restock"
	salescontrollers "github.com/angelmondragon/retailstock-backend/api/controllers/sales"
	stockcontrollers "github.com/angelmondragon/retailstock-backend/api/controllers/stock"
	"github.com/angelmondragon/retailstock-backend/api/middleware"
	"github.com/angelmondragon/retailstock-backend/internal/deliveries"
	"github.com/angelmondragon/retailstock-backend/internal/inventory"
	"github.com/angelmondragon/retailstock-backend/internal/orders"
	"github.com/angelmondragon/retailstock-backend/internal/restock"
	"github.com/angelmondragon/retailstock-backend/internal/sales"
	"github.com/angelmondragon/retailstock-backend/pkg/config"
	"github.com/angelmondragon/retailstock-backend/pkg/db"
	"github.com/angelmondragon/retailstock-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/retailstock-backend/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer needs: idempotency records, write
// throttling and the readiness ping.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Orders     orders.Service
	Deliveries deliveries.Service
	Inventory  inventory.Service
	Sales      sales.Service
	Restock    restock.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	deps := []controllers.Dependency{{Name: "database", Pinger: dbP}}
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	writePolicy := middleware.NewRateLimitPolicy("writes", cfg.RateLimit.Window, cfg.RateLimit.WriteLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.StoreContext(logg))
		if redisClient != nil {
			r.Use(middleware.WriteRateLimit(writePolicy, redisClient, logg))
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(svcs.Orders, logg))
			r.Post("/availability", ordercontrollers.CheckAvailability(svcs.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
			r.Get("/{orderId}/availability", ordercontrollers.Availability(svcs.Orders, logg))
			r.Post("/{orderId}/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(svcs.Orders, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", deliverycontrollers.Create(svcs.Deliveries, logg))
			r.Get("/pending", deliverycontrollers.Pending(svcs.Deliveries, logg))
			r.Get("/{deliveryId}", deliverycontrollers.Detail(svcs.Deliveries, logg))
			r.Post("/{deliveryId}/status", deliverycontrollers.UpdateStatus(svcs.Deliveries, logg))
			r.Post("/{deliveryId}/cancel", deliverycontrollers.Cancel(svcs.Deliveries, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/products/{productId}/stores", stockcontrollers.ByStore(svcs.Inventory, logg))
			r.Get("/products/{productId}/stores/{storeId}/counts", stockcontrollers.Counts(svcs.Inventory, logg))
			r.Get("/products/{productId}/stores/{storeId}/availability", stockcontrollers.Availability(svcs.Inventory, logg))
			r.Get("/products/{productId}/stores/{storeId}/units", stockcontrollers.Units(svcs.Inventory, logg))
			r.Post("/units/{unitId}/display", stockcontrollers.SetDisplay(svcs.Inventory, logg))
			r.Post("/units/{unitId}/transition", stockcontrollers.Transition(svcs.Inventory, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", salescontrollers.CreateTransaction(svcs.Sales, logg))
			r.Get("/{transactionId}", salescontrollers.TransactionDetail(svcs.Sales, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", salescontrollers.CreateReturn(svcs.Sales, logg))
			r.Get("/{returnId}", salescontrollers.ReturnDetail(svcs.Sales, logg))
			r.Post("/{returnId}/resolve", salescontrollers.ResolveReturn(svcs.Sales, logg))
		})

		r.Route("/restock", func(r chi.Router) {
			r.Get("/suggestions", restockcontrollers.Suggestions(svcs.Restock, logg))
			r.Get("/{storeId}/low-stock", restockcontrollers.LowStock(svcs.Restock, logg))
			r.Post("/{storeId}/auto", restockcontrollers.AutoRestock(svcs.Restock, logg))
		})
	})

	return r
}
