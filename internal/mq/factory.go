// internal/mq/factory.go
package mq

import (
	"context"
	"fmt"

	"github.com/javajoker/artmarket-backend/internal/config"
)

// NewFromConfig connects the broker named by BROKER_DRIVER.
func NewFromConfig(ctx context.Context, cfg config.BrokerConfig) (*MQ, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Driver {
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "nats":
		backend, err = NewNATSClient(cfg.NATS)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	case "memory", "":
		backend = NewMemoryBroker()
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s broker: %w", cfg.Driver, err)
	}

	return New(backend), nil
}
