package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arcadia-retail/arcadia-retail/internal/platform/httpx"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Handler wires HTTP endpoints for reporting.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/daily", h.daily)
	r.Get("/monthly", h.monthly)
	r.Get("/quarterly", h.quarterly)
	r.Get("/annual", h.annual)
	r.Get("/summary", h.summary)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		return
	}
	h.respondPeriod(w, r, DayWindow(date))
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	window, err := MonthWindow(year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondPeriod(w, r, window)
}

func (h *Handler) quarterly(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quarter, err := queryInt(r, "quarter")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	window, err := QuarterWindow(year, quarter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondPeriod(w, r, window)
}

func (h *Handler) annual(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	window, err := YearWindow(year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondPeriod(w, r, window)
}

func (h *Handler) respondPeriod(w http.ResponseWriter, r *http.Request, window Window) {
	storeID, err := queryStoreID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	report, err := h.service.Period(r.Context(), principal, window, storeID)
	if err != nil {
		h.logger.Error("period report", slog.String("period", window.Label), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, report)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryStoreID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	principal, _ := shared.PrincipalFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), principal, storeID)
	if err != nil {
		h.logger.Error("summary report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, summary)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, shared.FieldErrors{{Field: name, Message: "required"}}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.FieldErrors{{Field: name, Message: "must be an integer"}}
	}
	return v, nil
}

func queryStoreID(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("storeId")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, shared.FieldErrors{{Field: "storeId", Message: "must be a positive integer"}}
	}
	return &v, nil
}
