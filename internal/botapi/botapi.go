package botapi

import (
	"context"
	"errors"
)

// ErrProviderUnavailable covers non-2xx responses and transport failures
// from the bot provider. Retried on the next scheduled poll, never inline.
var ErrProviderUnavailable = errors.New("botapi: provider unavailable")

type StatusResponse struct {
	Status         string
	LiveTranscript string
}

type TranscriptResponse struct {
	Text string
}

type Client interface {
	GetStatus(ctx context.Context, providerBotID string) (*StatusResponse, error)
	GetTranscript(ctx context.Context, providerBotID string) (*TranscriptResponse, error)
}
