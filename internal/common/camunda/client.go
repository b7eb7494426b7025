// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/cenkalti/backoff/v5"

	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/logger"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
}

// Connect dials the broker and retries the topology probe with exponential
// backoff until it answers or maxElapsed passes.
func Connect(ctx context.Context, cfg config.CamundaConfig, maxElapsed time.Duration, log logger.Logger) (*Client, error) {
	log = logger.ForComponent(log, "camunda")
	requestTimeout := config.GetDuration(cfg.RequestTimeout)

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		probeCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		_, err := zeebeClient.NewTopologyCommand().Send(probeCtx)
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("zeebe broker not ready, retrying", map[string]interface{}{
				"broker":  cfg.BrokerAddress,
				"error":   err.Error(),
				"retryIn": next.String(),
			})
		}),
	)
	if err != nil {
		_ = zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}

	return &Client{client: zeebeClient, requestTimeout: requestTimeout}, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
