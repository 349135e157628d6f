package leave

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushub-erp/campushub/internal/platform/httpx"
	"github.com/campushub-erp/campushub/internal/shared"
)

// Handler exposes the leave workflow over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers leave routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.apply)
	r.Get("/{id}", h.get)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/cancel", h.cancel)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	q := r.URL.Query()

	f := ListFilter{
		ApplicantID: q.Get("applicant_id"),
		Status:      Status(q.Get("status")),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = t
		}
	}

	list, err := h.service.List(r.Context(), scope, f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input ApplyInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.Apply(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	a, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

type reviewBody struct {
	Note string `json:"note"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.reviewRoute(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.reviewRoute(w, r, h.service.Reject)
}

func (h *Handler) reviewRoute(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, scope shared.Scope, id, note string) (*Application, error)) {
	scope := shared.ScopeFromContext(r.Context())
	var body reviewBody
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
			return
		}
	}
	a, err := transition(r.Context(), scope, chi.URLParam(r, "id"), body.Note)
	if err != nil {
		respondLeaveError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	a, err := h.service.Cancel(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		respondLeaveError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func respondLeaveError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotReviewable) {
		httpx.Problem(w, http.StatusConflict, "Not Pending", err.Error())
		return
	}
	httpx.RespondError(w, err)
}
