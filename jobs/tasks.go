package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campushub-erp/campushub/internal/reports"
	"github.com/campushub-erp/campushub/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFeeOverdueScan is the nightly scan that flags unpaid fee lines
	// past their due date.
	TaskFeeOverdueScan = "fees:overdue_scan"
	// TaskReportExport renders a fee report to a file in object storage.
	TaskReportExport = "reports:export"
)

// OverdueScanPayload carries scheduling metadata for the overdue scan.
type OverdueScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue scan.
func NewOverdueScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFeeOverdueScan, body, asynq.Queue(QueueDefault)), nil
}

// ReportExportPayload carries everything needed to rebuild a report in
// the worker and write it to object storage.
type ReportExportPayload struct {
	SchoolID string      `json:"school_id"`
	UserID   string      `json:"user_id"`
	Role     shared.Role `json:"role"`

	Request reports.Request `json:"request"`
	Format  string          `json:"format"`
}

// Scope reconstructs the caller scope the export was requested under.
func (p ReportExportPayload) Scope() shared.Scope {
	return shared.Scope{SchoolID: p.SchoolID, UserID: p.UserID, Role: p.Role}
}

// NewReportExportTask constructs an Asynq task for a report export.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportExport, body, asynq.Queue(QueueDefault)), nil
}
