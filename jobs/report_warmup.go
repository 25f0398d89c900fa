package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/arcadia-retail/arcadia-retail/internal/jobs"
	"github.com/arcadia-retail/arcadia-retail/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportWarmupJob pre-populates the report cache so the first dashboard
// hit of the day does not pay for the aggregation.
type ReportWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reportsSvc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reportsSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now()
		},
	}
}

// Handle processes report warmup tasks: yesterday's daily report plus the
// current month and quarter.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	anchor := j.now().AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.Date, time.Local)
		if err != nil {
			return asynq.SkipRetry
		}
		anchor = parsed
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("anchor", anchor.Format("2006-01-02")))
	logger.Info("starting report warmup")

	windows := []reports.Window{reports.DayWindow(anchor)}
	if month, err := reports.MonthWindow(anchor.Year(), int(anchor.Month())); err == nil {
		windows = append(windows, month)
	}
	quarter := (int(anchor.Month())-1)/3 + 1
	if qw, err := reports.QuarterWindow(anchor.Year(), quarter); err == nil {
		windows = append(windows, qw)
	}

	for _, w := range windows {
		// Each window is bounded so one slow aggregation cannot pin the
		// worker slot.
		windowCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		err := j.Reports.Warm(windowCtx, w)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm window", slog.String("period", w.Label), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed report warmup", slog.Int("windows", len(windows)))
	return resultErr
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
