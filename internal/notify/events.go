package notify

import "time"

// RepairCompletedEvent announces that a repair reached the delivered state.
type RepairCompletedEvent struct {
	CorrelationID string    `json:"correlation_id"`
	RepairID      int64     `json:"repair_id"`
	TicketNumber  string    `json:"ticket_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	TotalCost     float64   `json:"total_cost"`
	CompletedAt   time.Time `json:"completed_at"`
}

// CustomUpdateEvent carries a free-text progress message for a repair.
type CustomUpdateEvent struct {
	CorrelationID string `json:"correlation_id"`
	RepairID      int64  `json:"repair_id"`
	TicketNumber  string `json:"ticket_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Message       string `json:"message"`
}

// channelFor picks the outbound channel from the available contact details.
// Email wins when both are present.
func channelFor(email, phone string) string {
	if email != "" {
		return ChannelEmail
	}
	return ChannelSMS
}
