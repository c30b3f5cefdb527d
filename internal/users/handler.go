package users

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Handler serves /api/v1/users, /api/v1/customers and /api/v1/tour-guides.
type Handler struct {
	logger  *slog.Logger
	service *Service
	binder  *httpx.Binder
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

// MountUsers registers the generic user routes.
func (h *Handler) MountUsers(r chi.Router) {
	r.Get("/", h.list(AnyUser, "users", "All users retrieved successfully"))
	r.Get("/guides", h.guideDirectory)
	r.Get("/search", h.search)
	r.Get("/user/{id}", h.show(AnyUser, "user", "User details retrieved successfully"))
	r.Put("/edit/{id}", h.update(AnyUser, "user"))
	r.Patch("/edit/{id}", h.update(AnyUser, "user"))
	r.Delete("/delete/{id}", h.delete(AnyUser, "User deleted successfully"))
}

// MountCustomers registers the customer routes.
func (h *Handler) MountCustomers(r chi.Router) {
	r.Get("/", h.list(Customers, "customers", "All customers retrieved successfully"))
	r.Get("/{id}", h.show(Customers, "customer", "Customer details retrieved"))
	r.Put("/edit/{id}", h.update(Customers, "customer"))
	r.Patch("/edit/{id}", h.update(Customers, "customer"))
	r.Delete("/delete/{id}", h.delete(Customers, "Customer account deleted successfully"))
}

// MountGuides registers the tour guide routes.
func (h *Handler) MountGuides(r chi.Router) {
	r.Post("/create", h.createGuide)
	r.Get("/", h.list(Guides, "guides", "All tour guides retrieved successfully"))
	r.Get("/{id}", h.show(Guides, "guide", "Tour guide details retrieved"))
	r.Put("/edit/{id}", h.update(Guides, "guide"))
	r.Patch("/edit/{id}", h.update(Guides, "guide"))
	r.Delete("/delete/{id}", h.delete(Guides, "Tour guide deleted successfully"))
}

func (h *Handler) list(kind Kind, key, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := shared.RequireActor(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		page := shared.PageFromRequest(r)
		items, total, err := h.service.List(r.Context(), actor, kind, page)
		if err != nil {
			httpx.Fail(w, r, h.logger, "list "+key, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"message":    message,
			"total":      total,
			key:          items,
			"pagination": shared.NewPagination(page.Page, page.PerPage, total),
		})
	}
}

func (h *Handler) guideDirectory(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageFromRequest(r)
	items, total, err := h.service.GuideDirectory(r.Context(), actor, page)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list guide directory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "All guides retrieved successfully",
		"total":      total,
		"guides":     items,
		"pagination": shared.NewPagination(page.Page, page.PerPage, total),
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := SearchFilter{Query: r.URL.Query().Get("query")}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := policy.ParseRole(raw)
		if err != nil {
			httpx.RespondError(w, httpx.Invalid("role", "must be one of admin guide customer agent"))
			return
		}
		filter.Role = role
	}

	results, err := h.service.Search(r.Context(), actor, filter)
	if err != nil {
		httpx.Fail(w, r, h.logger, "search users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("Users matching %q retrieved successfully", filter.Query),
		"total_results": len(results),
		"results":       results,
	})
}

func (h *Handler) show(kind Kind, key, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		u, err := h.service.Get(r.Context(), actor, kind, id)
		if err != nil {
			httpx.Fail(w, r, h.logger, "get "+key, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"message": message, key: u})
	}
}

func (h *Handler) update(kind Kind, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		u, err := h.service.Update(r.Context(), actor, kind, id, req)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update "+key, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("%s's details updated successfully", u.FullName()),
			key:       u,
		})
	}
}

func (h *Handler) delete(kind Kind, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		if err := h.service.Delete(r.Context(), actor, kind, id); err != nil {
			httpx.Fail(w, r, h.logger, "delete "+string(kind.Type), err)
			return
		}
		httpx.JSON(w, http.StatusOK, httpx.Message{Message: message})
	}
}

func (h *Handler) createGuide(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.RequireActor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateGuideRequest
	if err := h.binder.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	guide, err := h.service.CreateGuide(r.Context(), actor, req)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create guide", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Tour guide created successfully", "guide": guide})
}
