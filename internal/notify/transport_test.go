package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransportLogProvider(t *testing.T) {
	cfg := &Config{Provider: ProviderLog, SenderEmail: "no-reply@arcadia.local"}
	transport := NewTransport(cfg, slog.Default())

	_, ok := transport.(*logTransport)
	require.True(t, ok)
	assert.NoError(t, transport.SendEmail(context.Background(), "a@b.c", "subject", "body"))
	assert.NoError(t, transport.SendSMS(context.Background(), "+4712345678", "body"))
}

func TestNewTransportUnknownProviderFallsBackToLog(t *testing.T) {
	cfg := &Config{Provider: "carrier-pigeon"}
	transport := NewTransport(cfg, slog.Default())

	_, ok := transport.(*logTransport)
	assert.True(t, ok)
}
