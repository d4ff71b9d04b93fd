package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueworldgit/epc-parts-store/internal/service"
	"github.com/blueworldgit/epc-parts-store/pkg/health"
	"github.com/blueworldgit/epc-parts-store/pkg/middleware"
)

// RouterConfig carries the cross-cutting settings the router needs.
type RouterConfig struct {
	ServiceName  string
	CORS         middleware.CORSConfig
	PprofEnabled bool
	PprofCIDRs   []string
}

// NewRouter creates a chi router with all checkout and payment routes
// registered.
func NewRouter(
	checkoutService *service.CheckoutService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	checkoutHandler := NewCheckoutHandler(checkoutService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.BeginCheckout)
			r.Get("/", checkoutHandler.GetCheckout)
			r.Delete("/", checkoutHandler.CancelCheckout)
			r.Post("/payment", checkoutHandler.SubmitPayment)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", checkoutHandler.ListOrders)
			r.Get("/{number}", checkoutHandler.GetOrder)
			r.Patch("/{number}/status", checkoutHandler.UpdateOrderStatus)
		})

		r.Post("/payments/{paymentID}/refunds", checkoutHandler.RefundPayment)
	})

	return r
}
