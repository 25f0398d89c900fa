package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Task types processed by the notification worker.
const (
	TaskRepairCompleted = "notify:repair_completed"
	TaskCustomUpdate    = "notify:custom_update"

	// QueueNotify isolates notification traffic from other background work.
	QueueNotify = "notify"
)

// Dispatcher submits lifecycle events for asynchronous delivery. A failed
// submission is reported in the result, never as an error, so lifecycle
// operations stay unaffected.
type Dispatcher interface {
	DispatchRepairCompleted(ctx context.Context, evt RepairCompletedEvent) DispatchResult
	DispatchCustomUpdate(ctx context.Context, evt CustomUpdateEvent) DispatchResult
}

// DispatchObserver receives dispatch outcomes for metrics.
type DispatchObserver interface {
	ObserveDispatch(channel string, delivered bool)
}

// QueueDispatcher enqueues delivery tasks on Asynq.
type QueueDispatcher struct {
	client   *asynq.Client
	cfg      *Config
	logger   *slog.Logger
	observer DispatchObserver
}

// NewQueueDispatcher constructs a QueueDispatcher.
func NewQueueDispatcher(client *asynq.Client, cfg *Config, logger *slog.Logger, observer DispatchObserver) *QueueDispatcher {
	return &QueueDispatcher{client: client, cfg: cfg, logger: logger, observer: observer}
}

// DispatchRepairCompleted submits a completion notice.
func (d *QueueDispatcher) DispatchRepairCompleted(ctx context.Context, evt RepairCompletedEvent) DispatchResult {
	channel := channelFor(evt.CustomerEmail, evt.CustomerPhone)
	return d.enqueue(ctx, TaskRepairCompleted, evt, channel, evt.TicketNumber)
}

// DispatchCustomUpdate submits a free-text progress message.
func (d *QueueDispatcher) DispatchCustomUpdate(ctx context.Context, evt CustomUpdateEvent) DispatchResult {
	channel := channelFor(evt.CustomerEmail, evt.CustomerPhone)
	return d.enqueue(ctx, TaskCustomUpdate, evt, channel, evt.TicketNumber)
}

func (d *QueueDispatcher) enqueue(ctx context.Context, taskType string, payload any, channel, ticket string) DispatchResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return d.failed(channel, ticket, taskType, err)
	}

	// The submission is bounded so a stalled queue can never block the
	// lifecycle operation that produced the event.
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	task := asynq.NewTask(taskType, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueNotify), asynq.MaxRetry(5)); err != nil {
		return d.failed(channel, ticket, taskType, err)
	}
	if d.observer != nil {
		d.observer.ObserveDispatch(channel, true)
	}
	return DispatchResult{Delivered: true, Channel: channel}
}

func (d *QueueDispatcher) failed(channel, ticket, taskType string, err error) DispatchResult {
	d.logger.Error("notification dispatch failed",
		slog.String("task", taskType),
		slog.String("ticket", ticket),
		slog.String("channel", channel),
		slog.Any("error", err),
	)
	if d.observer != nil {
		d.observer.ObserveDispatch(channel, false)
	}
	return DispatchResult{Delivered: false, Channel: channel, Error: err.Error()}
}
