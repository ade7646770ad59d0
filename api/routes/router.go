package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sajidhasan/fieldorder/api/controllers"
	"github.com/sajidhasan/fieldorder/api/middleware"
	"github.com/sajidhasan/fieldorder/pkg/config"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

// Deps carries everything the HTTP surface is wired from.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	DB     controllers.Pinger
	KV     controllers.Pinger
	Remote controllers.Pinger

	Session       controllers.SessionService
	Cart          controllers.CartService
	Queue         controllers.QueueService
	CustomerCache controllers.CustomerCache
	Customers     controllers.CustomerSearcher
	Items         controllers.ItemSearcher
	Who           controllers.EmployeeResolver

	SearchLimit int
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.KV, deps.Remote))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionCurrent(deps.Session, logg))
			r.Post("/login", controllers.SessionLogin(deps.Session, logg))
			r.Post("/logout", controllers.SessionLogout(deps.Session, logg))
			r.Post("/unlock", controllers.SessionUnlock(deps.Session, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartCurrent(deps.Cart, logg))
			r.Get("/selection", controllers.CartSelection(deps.Cart, logg))
			r.Post("/business-unit", controllers.CartSelectBusinessUnit(deps.Cart, logg))
			r.Post("/customer", controllers.CartSelectCustomer(deps.Cart, logg))
			r.Post("/lines", controllers.CartAddLine(deps.Cart, logg))
			r.Delete("/lines/{itemCode}", controllers.CartRemoveLine(deps.Cart, logg))
			r.Post("/finalize", controllers.CartFinalize(deps.Cart, logg))
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", controllers.QueueList(deps.Queue, logg))
			r.Post("/send", controllers.QueueSendAll(deps.Queue, logg))
			r.Post("/{key}/send", controllers.QueueSendOne(deps.Queue, logg))
			r.Delete("/{key}", controllers.QueueDelete(deps.Queue, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomersSearch(deps.Customers, deps.CustomerCache, deps.Who, deps.SearchLimit, logg))
			r.Post("/sync", controllers.CustomersSync(deps.CustomerCache, deps.Who, logg))
		})

		r.Get("/items", controllers.ItemsSearch(deps.Items, deps.SearchLimit, logg))
	})

	return r
}
