// Package notify delivers customer-facing messages for lifecycle events.
// Dispatch is fire-and-forget with respect to the lifecycle transaction:
// the caller awaits only the submission decision, never delivery.
package notify

import "time"

// Channel names reported in dispatch results.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ProviderLog records outbound messages in the application log instead of
// sending them. It is the default provider.
const ProviderLog = "log"

// Config carries provider selection and sender identity. It is built once
// at process start and passed by reference; nothing reads notification
// settings from ambient state.
type Config struct {
	Provider    string
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
}

// DispatchResult reports the per-channel outcome of a dispatch attempt.
// Delivered means the message was accepted for delivery; transport-level
// retries are the queue's responsibility.
type DispatchResult struct {
	Delivered bool   `json:"delivered"`
	Channel   string `json:"channel"`
	Error     string `json:"error,omitempty"`
}
