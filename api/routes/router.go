package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praco-io/praco-backend/api/controllers"
	"github.com/praco-io/praco-backend/api/middleware"
	"github.com/praco-io/praco-backend/internal/cart"
	"github.com/praco-io/praco-backend/internal/catalog"
	"github.com/praco-io/praco-backend/internal/orders"
	"github.com/praco-io/praco-backend/internal/users"
	"github.com/praco-io/praco-backend/pkg/config"
	"github.com/praco-io/praco-backend/pkg/db"
	"github.com/praco-io/praco-backend/pkg/logger"
	pkgredis "github.com/praco-io/praco-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *pkgredis.Client
	Metrics prometheus.Gatherer

	Users   users.Service
	Catalog catalog.Service
	Cart    cart.Service
	Orders  orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", controllers.UserRegister(deps.Users, logg))
		r.Post("/login", controllers.UserLogin(deps.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(logg))
			r.Get("/me", controllers.UserProfile(deps.Users, logg))
			r.Route("/me/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Users, logg))
				r.Post("/", controllers.AddressCreate(deps.Users, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(deps.Users, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.Users, logg))
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		if deps.Redis != nil {
			r.Use(middleware.RateLimit(deps.Redis, cfg.HTTP.WriteRateLimit, cfg.HTTP.WriteRateWindow, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/lines/{lineId}", controllers.CartUpsertLine(deps.Cart, logg))
			r.Delete("/lines/{lineId}", controllers.CartRemoveLine(deps.Cart, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Post("/", controllers.OrderPlace(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Put("/{orderId}/lines", controllers.OrderUpsertLine(deps.Orders, logg))
		})

		r.Route("/api/v1/catalog", func(r chi.Router) {
			r.Post("/categories", controllers.CategoryCreate(deps.Catalog, logg))
			r.Post("/products", controllers.ProductCreate(deps.Catalog, logg))
			r.Post("/variants", controllers.VariantCreate(deps.Catalog, logg))
			r.Get("/variants/{variantId}/resolve-tier", controllers.TierResolve(deps.Catalog, logg))
			r.Post("/items", controllers.ItemCreate(deps.Catalog, logg))
			r.Put("/items/{itemId}/data", controllers.ItemDataSet(deps.Catalog, logg))
			r.Post("/table-fields", controllers.TableFieldCreate(deps.Catalog, logg))
			r.Post("/tiers", controllers.TierCreate(deps.Catalog, logg))
			r.Put("/tiers/{tierId}", controllers.TierUpdate(deps.Catalog, logg))
			r.Delete("/tiers/{tierId}", controllers.TierDelete(deps.Catalog, logg))
			r.Put("/tiers/{tierId}/price", controllers.TierPriceUpsert(deps.Catalog, logg))
			r.Post("/exclusive-prices", controllers.ExclusivePriceSet(deps.Catalog, logg))
			r.Delete("/exclusive-prices/{priceId}", controllers.ExclusivePriceDelete(deps.Catalog, logg))
		})
	})

	return r
}
