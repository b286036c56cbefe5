package consoleapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/session"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/handlers"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
)

type Dependencies struct {
	Backend      handlers.Backend
	Decisions    handlers.Submitter
	Audit        handlers.AuditLister
	AuditEnabled bool
	Throttle     session.Throttle
	Views        *views.Renderer
	Logger       *zap.Logger
	Config       config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	loginHandler := handlers.NewLoginHandler(deps.Backend, deps.Throttle, deps.Views, deps.Logger)
	homeHandler := handlers.NewHomeHandler(deps.Backend, deps.Decisions, deps.Config.Review.ReasonPolicy, deps.Views, deps.Logger)
	detailsHandler := handlers.NewDetailsHandler(deps.Backend, deps.Decisions, deps.Config.Review.ReasonPolicy, deps.Views, deps.Logger)
	historyHandler := handlers.NewHistoryHandler(deps.Audit, deps.AuditEnabled, deps.Views, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(deps.Config.HTTP.RateLimitPerMinute))

		r.Get("/", loginHandler.Show)
		r.Post("/signin", loginHandler.Submit)

		r.Get("/home", homeHandler.List)
		r.Get("/home/decide", homeHandler.Decide)
		r.Post("/home/decisions", homeHandler.Confirm)

		r.Get("/details/{id}", detailsHandler.Show)
		r.Post("/details/{id}/decision", detailsHandler.Confirm)

		r.Get("/history", historyHandler.List)
	})
}
