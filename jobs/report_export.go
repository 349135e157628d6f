package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campushub-erp/campushub/internal/jobs"
	"github.com/campushub-erp/campushub/internal/platform/objstore"
	"github.com/campushub-erp/campushub/internal/reports"
)

// ExportStore persists finished report files.
type ExportStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ReportExportJob rebuilds a report in the background and writes the
// CSV or XLSX file to object storage under the requesting school.
type ReportExportJob struct {
	Reports *reports.Service
	Store   ExportStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportExportJob initialises the report export handler.
func NewReportExportJob(reportService *reports.Service, store ExportStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportExportJob {
	return &ReportExportJob{Reports: reportService, Store: store, Logger: logger, Metrics: metrics}
}

// Handle renders the requested report and uploads the export file.
func (j *ReportExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil || j.Store == nil {
		return errors.New("report export: handler not configured")
	}
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskReportExport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rep, err := j.Reports.Run(ctx, payload.Scope(), payload.Request)
	if err != nil {
		resultErr = err
		return err
	}

	var buf bytes.Buffer
	var contentType string
	switch payload.Format {
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = reports.WriteXLSX(&buf, rep)
	case "csv", "":
		payload.Format = "csv"
		contentType = "text/csv"
		err = reports.WriteCSV(&buf, rep)
	default:
		return asynq.SkipRetry
	}
	if err != nil {
		if errors.Is(err, reports.ErrEmptyExport) {
			// Nothing to write; retrying will not change the data.
			j.log().Info("report export skipped, no rows",
				slog.String("mode", payload.Request.Mode),
				slog.String("school_id", payload.SchoolID))
			return nil
		}
		resultErr = err
		return err
	}

	fileName := reports.ExportFilename(rep, payload.Format)
	key, err := j.Store.Put(ctx,
		objstore.ObjectKey(fmt.Sprintf("exports/%s", payload.SchoolID), fileName),
		buf.Bytes(), contentType)
	if err != nil {
		resultErr = err
		return err
	}

	j.log().Info("report export stored",
		slog.String("mode", payload.Request.Mode),
		slog.String("school_id", payload.SchoolID),
		slog.String("key", key),
		slog.Int("bytes", buf.Len()))
	return nil
}

func (j *ReportExportJob) log() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
