// Package jobs hosts the background worker: queued notification delivery
// and scheduled report cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-populates the report cache for recent periods.
	TaskReportWarmup = "reports:warmup"
)

// ReportWarmupPayload selects the anchor date for the warmup run. An empty
// date warms up to yesterday.
type ReportWarmupPayload struct {
	Date string `json:"date,omitempty"`
}

// NewReportWarmupTask constructs the warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
