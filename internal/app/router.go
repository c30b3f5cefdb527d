package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tourdesk/tourdesk/internal/accommodations"
	"github.com/tourdesk/tourdesk/internal/assignments"
	"github.com/tourdesk/tourdesk/internal/auth"
	"github.com/tourdesk/tourdesk/internal/bookings"
	"github.com/tourdesk/tourdesk/internal/observability"
	"github.com/tourdesk/tourdesk/internal/payments"
	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/shared"
	"github.com/tourdesk/tourdesk/internal/tours"
	"github.com/tourdesk/tourdesk/internal/users"
	"github.com/tourdesk/tourdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Authorizer decides access to router level resources such as the policy catalogue.
	Authorizer *shared.Authorizer

	// RequireActor guards every /api/v1 route except /auth.
	RequireActor func(http.Handler) http.Handler

	AuthHandler           *auth.Handler
	UsersHandler          *users.Handler
	AccommodationsHandler *accommodations.Handler
	ToursHandler          *tours.Handler
	BookingsHandler       *bookings.Handler
	PaymentsHandler       *payments.Handler
	AssignmentsHandler    *assignments.Handler
	JobHandler            *jobs.Handler
}

// NewRouter constructs the chi.Router with TourDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, httpx.Message{Message: "API is running"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			if params.RequireActor != nil {
				r.Use(params.RequireActor)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountUsers)
				r.Route("/customers", params.UsersHandler.MountCustomers)
				r.Route("/tour-guides", params.UsersHandler.MountGuides)
			}
			if params.AccommodationsHandler != nil {
				r.Route("/accommodations", params.AccommodationsHandler.MountRoutes)
			}
			if params.ToursHandler != nil {
				r.Route("/tours", params.ToursHandler.MountRoutes)
			}
			if params.BookingsHandler != nil {
				r.Route("/bookings", params.BookingsHandler.MountRoutes)
			}
			if params.PaymentsHandler != nil {
				r.Route("/payments", params.PaymentsHandler.MountRoutes)
			}
			if params.AssignmentsHandler != nil {
				r.Route("/tour-assignments", params.AssignmentsHandler.MountRoutes)
			}
			r.Get("/policy", policyCatalogue(params.Authorizer))
		})
	})

	return r
}
