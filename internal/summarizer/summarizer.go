package summarizer

import (
	"context"
	"errors"
)

// Client abstracts the external summarization provider.
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// KeySource supplies the provider API key at call time so that an admin can
// configure it without restarting the service.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// ErrNotConfigured is returned when the provider API key is absent.
var ErrNotConfigured = errors.New("summarizer API key is not configured")

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("summarizer not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Summarize returns ErrNotImplemented.
func (PlaceholderClient) Summarize(ctx context.Context, text string) (string, error) {
	_ = ctx
	_ = text
	return "", ErrNotImplemented
}
