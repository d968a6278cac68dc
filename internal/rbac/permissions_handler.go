package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mantenix-erp/mantenix-erp/internal/platform/httpx"
)

// PermissionsHandler exposes the catalog and grant administration endpoints.
type PermissionsHandler struct {
	logger   *slog.Logger
	service  *Service
	guard    Middleware
	validate *validator.Validate
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, service *Service, guard Middleware) *PermissionsHandler {
	return &PermissionsHandler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ModulePermissions, ActionView))
		r.Get("/", h.listCatalog)
		r.Get("/users/{userID}", h.listUserGrants)
		r.Get("/users/{userID}/modules", h.listViewableModules)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ModulePermissions, ActionAssign))
		r.Post("/users/{userID}/grants", h.grant)
		r.Delete("/users/{userID}/grants/{permissionID}", h.revoke)
	})
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

type grantResponse struct {
	Permission permissionResponse `json:"permission"`
	GrantedBy  int64              `json:"granted_by"`
	GrantedAt  string             `json:"granted_at"`
	ExpiresAt  *string            `json:"expires_at,omitempty"`
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("list catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *PermissionsHandler) listUserGrants(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	grants, err := h.service.EffectiveGrants(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user grants", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, eg := range grants {
		resp := grantResponse{
			Permission: toPermissionResponse(eg.Permission),
			GrantedBy:  eg.Grant.GrantedBy,
			GrantedAt:  eg.Grant.GrantedAt.UTC().Format(time.RFC3339),
		}
		if eg.Grant.ExpiresAt != nil {
			formatted := eg.Grant.ExpiresAt.UTC().Format(time.RFC3339)
			resp.ExpiresAt = &formatted
		}
		out = append(out, resp)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *PermissionsHandler) listViewableModules(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	modules, err := h.service.ViewableModules(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": modules})
}

type grantRequest struct {
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

func (h *PermissionsHandler) grant(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := ActorFromContext(r.Context())
	if err := h.service.Grant(r.Context(), userID, req.PermissionID, actor.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user or permission not found")
			return
		}
		h.logger.Error("grant permission", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PermissionsHandler) revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	permissionID, err := pathID(r, "permissionID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid permission id")
		return
	}
	if err := h.service.Revoke(r.Context(), userID, permissionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "grant not found")
			return
		}
		h.logger.Error("revoke permission", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPermissionResponse(p Permission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Module:      string(p.Module),
		Action:      string(p.Action),
		Description: p.Description,
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
