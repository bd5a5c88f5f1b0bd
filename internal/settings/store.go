// Package settings provides runtime parameters that administrators change
// without redeploying, such as the summarizer API key.
package settings

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a parameter is absent.
var ErrNotFound = errors.New("setting not found")

// Well-known parameter keys.
const (
	KeySummarizerAPIKey = "summarizer.api_key"
)

// Store defines read/write access to runtime parameters.
type Store interface {
	GetParam(ctx context.Context, key string) (string, error)
	SetParam(ctx context.Context, key, value string) error
}
