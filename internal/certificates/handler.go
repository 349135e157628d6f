package certificates

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushub-erp/campushub/internal/platform/httpx"
	"github.com/campushub-erp/campushub/internal/shared"
)

// maxBackgroundBytes caps background uploads at 10 MiB.
const maxBackgroundBytes = 10 << 20

// Handler exposes certificate templates over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers certificate routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.save)
	r.Get("/{templateType}", h.get)
	r.Delete("/{templateType}", h.delete)
	r.Post("/{templateType}/background", h.uploadBackground)
	r.Post("/{templateType}/render", h.render)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	templates, err := h.service.List(r.Context(), scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, templates)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var input SaveInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	saved, err := h.service.Save(r.Context(), scope, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	t, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "templateType"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.Delete(r.Context(), scope, chi.URLParam(r, "templateType")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadBackground(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())

	if err := r.ParseMultipartForm(maxBackgroundBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "expected multipart form with a background field")
		return
	}
	file, header, err := r.FormFile("background")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "background field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBackgroundBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "could not read upload")
		return
	}

	saved, err := h.service.UploadBackground(r.Context(), scope, chi.URLParam(r, "templateType"),
		header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

type renderBody struct {
	StudentName    string `json:"student_name"`
	CourseName     string `json:"course_name"`
	CompletionDate string `json:"completion_date"`
	SchoolName     string `json:"school_name"`
	CertificateID  string `json:"certificate_id"`
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	var body renderBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	rendered, err := h.service.Render(r.Context(), scope, chi.URLParam(r, "templateType"), RenderData{
		StudentName:    body.StudentName,
		CourseName:     body.CourseName,
		CompletionDate: body.CompletionDate,
		SchoolName:     body.SchoolName,
		CertificateID:  body.CertificateID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rendered)
}
