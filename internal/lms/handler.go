package lms

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushub-erp/campushub/internal/platform/httpx"
	"github.com/campushub-erp/campushub/internal/shared"
)

// maxUploadBytes caps course material uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// Handler exposes the LMS over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers LMS routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/courses", h.listCourses)
	r.Post("/courses", h.createCourse)
	r.Get("/courses/{id}", h.getCourse)
	r.Put("/courses/{id}", h.updateCourse)
	r.Delete("/courses/{id}", h.deleteCourse)
	r.Post("/courses/{id}/publish", h.publishCourse)
	r.Post("/courses/{id}/unpublish", h.unpublishCourse)

	r.Get("/courses/{id}/resources", h.listResources)
	r.Post("/courses/{id}/resources", h.addLinkResource)
	r.Post("/courses/{id}/resources/upload", h.uploadResource)
	r.Delete("/courses/{id}/resources/{resourceID}", h.removeResource)

	r.Get("/courses/{id}/enrollments", h.listEnrollments)
	r.Post("/courses/{id}/enrollments", h.enroll)
	r.Put("/courses/{id}/enrollments/{userID}/progress", h.updateProgress)

	r.Get("/favorites", h.listFavorites)
	r.Post("/courses/{id}/favorite", h.favorite)
	r.Delete("/courses/{id}/favorite", h.unfavorite)
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	courses, err := h.service.ListCourses(r.Context(), scope)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, courses)
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input CourseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.CreateCourse(r.Context(), scope, input)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	c, err := h.service.GetCourse(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input CourseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	updated, err := h.service.UpdateCourse(r.Context(), scope, chi.URLParam(r, "id"), input)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.DeleteCourse(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		respondLMSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishCourse(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *Handler) unpublishCourse(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *Handler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	scope := shared.ScopeFromContext(r.Context())
	c, err := h.service.SetPublished(r.Context(), scope, chi.URLParam(r, "id"), published)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	resources, err := h.service.ListResources(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resources)
}

func (h *Handler) addLinkResource(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input LinkResourceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.AddLinkResource(r.Context(), scope, chi.URLParam(r, "id"), input)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) uploadResource(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "could not read upload")
		return
	}

	created, err := h.service.AddFileResource(r.Context(), scope, chi.URLParam(r, "id"),
		r.FormValue("title"), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) removeResource(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.RemoveResource(r.Context(), scope, chi.URLParam(r, "id"), chi.URLParam(r, "resourceID")); err != nil {
		respondLMSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEnrollments(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	enrollments, err := h.service.ListEnrollments(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enrollments)
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input EnrollInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.Enroll(r.Context(), scope, chi.URLParam(r, "id"), input)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type progressBody struct {
	Progress int `json:"progress"`
}

func (h *Handler) updateProgress(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var body progressBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	err := h.service.UpdateProgress(r.Context(), scope,
		chi.URLParam(r, "id"), chi.URLParam(r, "userID"), body.Progress)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	courses, err := h.service.ListFavorites(r.Context(), scope)
	if err != nil {
		respondLMSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, courses)
}

func (h *Handler) favorite(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.Favorite(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		respondLMSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unfavorite(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.Unfavorite(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		respondLMSError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondLMSError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotPublished) {
		httpx.Problem(w, http.StatusForbidden, "Not Published", err.Error())
		return
	}
	if errors.Is(err, ErrWrongAudience) {
		httpx.Problem(w, http.StatusConflict, "Wrong Audience", err.Error())
		return
	}
	httpx.RespondError(w, err)
}
