package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Handlers processes queued delivery tasks inside the worker.
type Handlers struct {
	cfg       *Config
	transport Transport
	logger    *slog.Logger
	printer   *message.Printer
}

// NewHandlers constructs the worker-side task handlers.
func NewHandlers(cfg *Config, transport Transport, logger *slog.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
		printer:   message.NewPrinter(language.English),
	}
}

// HandleRepairCompleted processes TaskRepairCompleted tasks.
func (h *Handlers) HandleRepairCompleted(ctx context.Context, t *asynq.Task) error {
	var evt RepairCompletedEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		h.logger.Error("bad repair-completed payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	subject := fmt.Sprintf("Your repair %s is ready for pickup", evt.TicketNumber)
	body := h.printer.Sprintf(
		"Hi %s, repair ticket %s is complete. Amount due: %.2f. Please collect your device at the store.",
		evt.CustomerName, evt.TicketNumber, evt.TotalCost,
	)
	return h.send(ctx, evt.CorrelationID, evt.CustomerEmail, evt.CustomerPhone, subject, body)
}

// HandleCustomUpdate processes TaskCustomUpdate tasks.
func (h *Handlers) HandleCustomUpdate(ctx context.Context, t *asynq.Task) error {
	var evt CustomUpdateEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		h.logger.Error("bad custom-update payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	subject := fmt.Sprintf("Update on repair %s", evt.TicketNumber)
	body := fmt.Sprintf("Hi %s, an update on ticket %s: %s", evt.CustomerName, evt.TicketNumber, evt.Message)
	return h.send(ctx, evt.CorrelationID, evt.CustomerEmail, evt.CustomerPhone, subject, body)
}

func (h *Handlers) send(ctx context.Context, correlationID, email, phone, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	var err error
	switch channelFor(email, phone) {
	case ChannelEmail:
		err = h.transport.SendEmail(ctx, email, subject, body)
	case ChannelSMS:
		if phone == "" {
			h.logger.Warn("no contact details for notification", slog.String("correlation_id", correlationID))
			return asynq.SkipRetry
		}
		err = h.transport.SendSMS(ctx, phone, body)
	}
	if err != nil {
		h.logger.Error("notification delivery failed",
			slog.String("correlation_id", correlationID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
