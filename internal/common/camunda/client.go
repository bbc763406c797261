// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"translation-workers/internal/common/config"
	"translation-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client with a connection check.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
}

// RetryConfig defines backoff for startup connections.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func NewClient(cfg config.CamundaConfig) (*Client, error) {
	timeout := config.GetDuration(cfg.RequestTimeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      timeout,
	})
}

// NewClientWithConfig creates the client and verifies the broker answers a
// topology request.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}
	if err := c.Ping(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Name() string { return "zeebe" }

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("failed to reach Zeebe broker at %s: %w", c.config.GatewayAddress, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// RetryWithBackoff runs operation until it succeeds, the retries run out,
// the context ends, or the error is permanent.
func RetryWithBackoff(ctx context.Context, cfg *RetryConfig, operationName string, operation func() error, log logger.Logger) error {
	if cfg == nil {
		cfg = DefaultRetryConfig
	}

	var err error
	delay := cfg.BaseDelay
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}
		if isPermanentError(err) {
			return fmt.Errorf("%s failed permanently: %w", operationName, err)
		}
		if attempt == cfg.MaxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  cfg.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, cfg.MaxRetries, err)
}

// isPermanentError reports errors that no amount of waiting will fix.
func isPermanentError(err error) bool {
	msg := strings.ToLower(err.Error())
	permanentPhrases := []string{
		"authentication failed",
		"permission denied",
		"unauthorized",
		"noauth",
		"wrongpass",
	}
	for _, phrase := range permanentPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
