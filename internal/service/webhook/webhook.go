// Package webhook posts accepted lines to an HTTP endpoint.
package webhook

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"textwatch/internal/config"
	"textwatch/internal/dto"
	"textwatch/internal/logger"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink POSTs every accepted line as JSON. Connection failures are retried by
// the client; an error status is returned to the session as a sink error.
type Sink struct {
	client    *resty.Client
	url       string
	delivered atomic.Uint64
	logger    *logger.Logger
}

// New creates a sink for config.WebhookURL.
func New(config *config.Config, logger *logger.Logger) *Sink {
	client := resty.New().
		SetTimeout(config.WebhookTimeout).
		SetRetryCount(config.WebhookRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "textwatch")

	logger.Info("🔗 Webhook sink enabled: %s", config.WebhookURL)
	return &Sink{client: client, url: config.WebhookURL, logger: logger}
}

// Emit implements the session sink.
func (s *Sink) Emit(ctx context.Context, event dto.LineEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode line event: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}

	s.delivered.Add(1)
	return nil
}

// Delivered returns the number of lines the endpoint accepted.
func (s *Sink) Delivered() uint64 {
	return s.delivered.Load()
}
