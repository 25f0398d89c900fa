package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arcadia-retail/arcadia-retail/internal/platform/httpx"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Handler wires HTTP endpoints for the sale lifecycle.
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

// MountRoutes registers sale routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/daily", h.daily)
	r.Get("/{id}", h.show)
	r.Put("/{id}/status", h.transition)
	r.Post("/{id}/refund", h.refund)
	r.Delete("/{id}", h.deactivate)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	sale, err := h.service.CreateSale(r.Context(), req, principal.UserID)
	if err != nil {
		h.logError(r, "create sale", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, sale)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		h.logError(r, "get sale", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, sale)
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

	sale, err := h.service.TransitionStatus(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		h.logError(r, "transition sale", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, sale)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RefundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if errs := httpx.ValidateStruct(h.validator, req); errs != nil {
		httpx.RespondError(w, errs)
		return
	}

	sale, err := h.service.Refund(r.Context(), id, req)
	if err != nil {
		h.logError(r, "refund sale", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, sale)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.logError(r, "deactivate sale", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OKMessage(w, http.StatusOK, "sale deactivated", nil)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		return
	}

	var storeID *int64
	if raw := r.URL.Query().Get("storeId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			httpx.Fail(w, http.StatusBadRequest, "storeId must be a positive integer", nil)
			return
		}
		storeID = &parsed
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "limit must be an integer", nil)
			return
		}
		limit = parsed
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	summary, err := h.service.ListDaily(r.Context(), principal, date, storeID, limit)
	if err != nil {
		h.logError(r, "daily sales", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, summary)
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.Error(op,
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

