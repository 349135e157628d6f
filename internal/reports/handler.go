package reports

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushub-erp/campushub/internal/platform/httpx"
	"github.com/campushub-erp/campushub/internal/shared"
)

// AsyncExporter schedules a report export in the background and
// returns the task id.
type AsyncExporter interface {
	EnqueueReportExport(ctx context.Context, scope shared.Scope, req Request, format string) (string, error)
}

// Handler exposes fee reports over HTTP.
type Handler struct {
	service  *Service
	exporter AsyncExporter
}

// NewHandler builds a Handler. The exporter may be nil when background
// exports are disabled.
func NewHandler(service *Service, exporter AsyncExporter) *Handler {
	return &Handler{service: service, exporter: exporter}
}

// MountRoutes registers report routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listModes)
	r.Get("/{mode}", h.run)
	r.Get("/{mode}/export", h.export)
	r.Post("/{mode}/export-async", h.exportAsync)
}

func (h *Handler) listModes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"modes": ModeNames()})
}

func parseRequest(r *http.Request) Request {
	q := r.URL.Query()
	req := Request{
		Mode:           chi.URLParam(r, "mode"),
		ClassID:        q.Get("class_id"),
		StudentID:      q.Get("student_id"),
		Classifier:     q.Get("classifier"),
		HeadID:         q.Get("head_id"),
		FeeCategoryID:  q.Get("fee_category_id"),
		FeeGroupID:     q.Get("fee_group_id"),
		AcademicYearID: q.Get("academic_year_id"),
		PaymentMode:    q.Get("payment_mode"),
		Search:         q.Get("search"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.To = t
		}
	}
	if v := q.Get("date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.Date = t
		}
	}
	return req
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	rep, err := h.service.Run(r.Context(), scope, parseRequest(r))
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	rep, err := h.service.Run(r.Context(), scope, parseRequest(r))
	if err != nil {
		respondReportError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		err = WriteCSV(&buf, rep)
		contentType = "text/csv"
	case "xlsx":
		err = WriteXLSX(&buf, rep)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		httpx.Problem(w, http.StatusBadRequest, "Invalid Format", "format must be csv or xlsx")
		return
	}
	if err != nil {
		respondReportError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename(rep, format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) exportAsync(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Exports Disabled", "background exports are not configured")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	taskID, err := h.exporter.EnqueueReportExport(r.Context(), scope, parseRequest(r), format)
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownMode):
		httpx.Problem(w, http.StatusNotFound, "Unknown Report", err.Error())
	case errors.Is(err, ErrEmptyExport):
		httpx.Problem(w, http.StatusBadRequest, "Empty Export", "the report has no rows to export")
	default:
		httpx.RespondError(w, err)
	}
}
