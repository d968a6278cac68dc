package rbac

import (
	"log/slog"
	"net/http"

	"github.com/mantenix-erp/mantenix-erp/internal/platform/httpx"
)

// DecisionRecorder receives the outcome of every guard evaluation, typically
// backed by a prometheus counter.
type DecisionRecorder interface {
	AuthzDecision(module, action string, allowed bool)
}

// Middleware guards HTTP routes with authorization checks.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Metrics  DecisionRecorder
}

// Require allows the request through only when the session actor may perform
// action on module. Unauthenticated requests get 401, denials 403 with the
// resolver's reason; the response never reveals which grants exist.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			decision := m.Resolver.Authorize(r.Context(), actor, module, action)
			if m.Metrics != nil {
				m.Metrics.AuthzDecision(string(module), string(action), decision.Allowed)
			}
			if !decision.Allowed {
				if m.Logger != nil {
					m.Logger.Info("authorization denied",
						slog.Int64("user_id", actor.ID),
						slog.String("module", string(module)),
						slog.String("action", string(action)))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
