package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campushub-erp/campushub/internal/certificates"
	"github.com/campushub-erp/campushub/internal/fees"
	"github.com/campushub-erp/campushub/internal/leave"
	"github.com/campushub-erp/campushub/internal/lms"
	"github.com/campushub-erp/campushub/internal/observability"
	"github.com/campushub-erp/campushub/internal/reports"
	"github.com/campushub-erp/campushub/internal/shared"
	"github.com/campushub-erp/campushub/internal/students"
	"github.com/campushub-erp/campushub/internal/teachers"
	"github.com/campushub-erp/campushub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	StudentsHandler     *students.Handler
	FeesHandler         *fees.Handler
	ReportsHandler      *reports.Handler
	TeachersHandler     *teachers.Handler
	LeaveHandler        *leave.Handler
	LMSHandler          *lms.Handler
	CertificatesHandler *certificates.Handler
	JobHandler          *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.StudentsHandler != nil {
		r.Route("/students", params.StudentsHandler.MountRoutes)
	}
	if params.FeesHandler != nil {
		r.Route("/fees", params.FeesHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/fee-reports", params.ReportsHandler.MountRoutes)
	}
	if params.TeachersHandler != nil {
		r.Route("/teachers", params.TeachersHandler.MountRoutes)
	}
	if params.LeaveHandler != nil {
		r.Route("/leave-applications", params.LeaveHandler.MountRoutes)
	}
	if params.LMSHandler != nil {
		r.Route("/lms", params.LMSHandler.MountRoutes)
	}
	if params.CertificatesHandler != nil {
		r.Route("/certificate-templates", params.CertificatesHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
