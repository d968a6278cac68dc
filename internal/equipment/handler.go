package equipment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mantenix-erp/mantenix-erp/internal/platform/httpx"
	"github.com/mantenix-erp/mantenix-erp/internal/rbac"
)

// Handler manages equipment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers equipment routes. The guard is asked for the
// canonical module name; requests against the legacy "equipos" paths are
// mounted on the same handler by the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleEquipment, rbac.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(rbac.ModuleEquipment, rbac.ActionCreate))
		r.Post("/", h.create)
	})
}

type equipmentResponse struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	SerialNumber *string `json:"serial_number,omitempty"`
	IsActive     bool    `json:"is_active"`
}

func toEquipmentResponse(e Equipment) equipmentResponse {
	return equipmentResponse{
		ID:           e.ID,
		Code:         e.Code,
		Name:         e.Name,
		Location:     e.Location,
		SerialNumber: e.SerialNumber,
		IsActive:     e.IsActive,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list equipment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]equipmentResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toEquipmentResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid equipment id")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "equipment not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEquipmentResponse(e))
}

type createEquipmentRequest struct {
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Location     string  `json:"location"`
	SerialNumber *string `json:"serial_number"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.Create(r.Context(), req.Code, req.Name, req.Location, req.SerialNumber)
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "equipment code already in use")
			return
		}
		h.logger.Error("create equipment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEquipmentResponse(e))
}
