package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campushub-erp/campushub/internal/fees"
	jobmetrics "github.com/campushub-erp/campushub/internal/jobs"
	"github.com/campushub-erp/campushub/internal/reports"
)

// OverdueScanJob walks every school and flips unpaid fee lines whose
// due date has passed to the overdue status. This scan is the only
// writer of that status.
type OverdueScanJob struct {
	Fees    *fees.Service
	Cache   *reports.Cache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(feeService *fees.Service, cache *reports.Cache, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Fees:    feeService,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Fees == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskFeeOverdueScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	asOf := payload.ScheduledFor
	if asOf.IsZero() {
		asOf = j.now()
	}

	schools, err := j.Fees.SchoolIDs(ctx)
	if err != nil {
		resultErr = err
		return err
	}

	var total int64
	for _, schoolID := range schools {
		marked, err := j.Fees.MarkOverdueForSchool(ctx, schoolID, asOf)
		if err != nil {
			j.log().Error("overdue scan failed for school",
				slog.String("school_id", schoolID), slog.Any("error", err))
			resultErr = err
			continue
		}
		if marked > 0 {
			j.metrics().AddOverdueMarked(schoolID, marked)
			total += marked
		}
	}

	if total > 0 && j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			j.log().Warn("report cache bump failed", slog.Any("error", err))
		}
	}

	j.log().Info("overdue scan finished",
		slog.Int("schools", len(schools)),
		slog.Int64("marked", total),
		slog.Time("as_of", asOf))
	return resultErr
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *OverdueScanJob) log() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *OverdueScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
