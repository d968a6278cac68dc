package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mantenix-erp/mantenix-erp/internal/auth"
	"github.com/mantenix-erp/mantenix-erp/internal/equipment"
	"github.com/mantenix-erp/mantenix-erp/internal/observability"
	"github.com/mantenix-erp/mantenix-erp/internal/rbac"
	"github.com/mantenix-erp/mantenix-erp/internal/shared"
	"github.com/mantenix-erp/mantenix-erp/internal/supplies"
	"github.com/mantenix-erp/mantenix-erp/internal/tickets"
	"github.com/mantenix-erp/mantenix-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Actors         ActorLookup

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	TicketsHandler     *tickets.Handler
	EquipmentHandler   *equipment.Handler
	SuppliesHandler    *supplies.Handler
	PermissionsHandler *rbac.PermissionsHandler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Mantenix defaults. Legacy Spanish
// prefixes (/usuarios, /equipos, /insumos) are mounted on the same handlers
// as their canonical counterparts; the permission checked is identical.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Actors:         params.Actors,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/usuarios", params.UsersHandler.MountRoutes)

	r.Route("/tickets", params.TicketsHandler.MountRoutes)

	r.Route("/equipment", params.EquipmentHandler.MountRoutes)
	r.Route("/equipos", params.EquipmentHandler.MountRoutes)

	r.Route("/supplies", params.SuppliesHandler.MountRoutes)
	r.Route("/insumos", params.SuppliesHandler.MountRoutes)

	r.Route("/permissions", params.PermissionsHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
