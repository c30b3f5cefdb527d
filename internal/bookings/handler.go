package bookings

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Handler serves /api/v1/bookings.
type Handler struct {
	logger  *slog.Logger
	service *Service
	binder  *httpx.Binder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

// MountRoutes registers booking routes behind actor authentication.
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
	if raw := q.Get("user_id"); raw != "" {
		filter.UserID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := q.Get("accommodation_id"); raw != "" {
		filter.AccommodationID, _ = strconv.ParseInt(raw, 10, 64)
	}

	items, total, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "All bookings retrieved successfully",
		"total":      total,
		"bookings":   items,
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
		httpx.Fail(w, r, h.logger, "get booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Booking details retrieved", "booking": item})
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
	item, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create booking", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Booking created successfully", "booking": item})
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
		httpx.Fail(w, r, h.logger, "update booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Booking updated successfully", "booking": item})
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
		httpx.Fail(w, r, h.logger, "delete booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Booking deleted successfully"})
}
