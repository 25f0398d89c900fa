package repairs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arcadia-retail/arcadia-retail/internal/notify"
	"github.com/arcadia-retail/arcadia-retail/internal/platform/httpx"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Handler wires HTTP endpoints for the repair lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers repair routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}/status", h.transition)
	r.Put("/{id}/price", h.updateCost)
	r.Post("/{id}/notify", h.customUpdate)
	r.Delete("/{id}", h.deactivate)
}

// repairResponse pairs the repair with the outcome of the notification the
// operation triggered, when it triggered one.
type repairResponse struct {
	Repair       *Repair                `json:"repair"`
	Notification *notify.DispatchResult `json:"notification,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRepairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	repair, err := h.service.CreateRepair(r.Context(), req, principal.UserID)
	if err != nil {
		h.logError(r, "create repair", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, repair)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	repair, err := h.service.GetRepair(r.Context(), id)
	if err != nil {
		h.logError(r, "get repair", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, repair)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req TransitionStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	repair, notification, err := h.service.TransitionStatus(r.Context(), id, req, principal.UserID)
	if err != nil {
		h.logError(r, "transition repair", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, repairResponse{Repair: repair, Notification: notification})
}

func (h *Handler) updateCost(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	repair, err := h.service.UpdateCost(r.Context(), id, req, principal.UserID)
	if err != nil {
		h.logError(r, "update repair cost", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, repair)
}

func (h *Handler) customUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CustomUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	repair, notification, err := h.service.SendCustomUpdate(r.Context(), id, req, principal.UserID)
	if err != nil {
		h.logError(r, "send custom update", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, repairResponse{Repair: repair, Notification: notification})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.logError(r, "deactivate repair", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OKMessage(w, http.StatusOK, "repair deactivated", nil)
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.Error(op,
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}
