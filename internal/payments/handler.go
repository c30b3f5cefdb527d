package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// IdempotencyHeader carries an optional client key on payment creation.
const IdempotencyHeader = "Idempotency-Key"

// Handler serves /api/v1/payments.
type Handler struct {
	logger  *slog.Logger
	service *Service
	binder  *httpx.Binder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

// MountRoutes registers payment routes behind actor authentication.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/create", h.create)
	r.Put("/edit/{id}", h.update)
	r.Patch("/edit/{id}", h.update)
	r.Delete("/delete/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), Page: shared.PageFromRequest(r)}
	if raw := q.Get("booking_id"); raw != "" {
		filter.BookingID, _ = strconv.ParseInt(raw, 10, 64)
	}

	items, total, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "All payments retrieved successfully",
		"total":      total,
		"payments":   items,
		"pagination": shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.ParseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Payment details retrieved", "payment": item})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateRequest
	if err := h.binder.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), actor, req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		httpx.Fail(w, r, h.logger, "create payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Payment created successfully", "payment": item})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.ParseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := h.binder.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		httpx.Fail(w, r, h.logger, "update payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Payment updated successfully", "payment": item})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.ParseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.Fail(w, r, h.logger, "delete payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Payment deleted successfully"})
}
