// internal/mq/nats.go
package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/config"
)

// NATSClient publishes and subscribes on core NATS subjects. Every
// subscriber receives every message, which is what realtime fan-out needs.
type NATSClient struct {
	conn *nats.Conn
}

func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{conn: conn}, nil
}

func (n *NATSClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("nats subject is required")
	}

	messageID := newMessageID()
	msg := nats.NewMsg(channel)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, messageID)
	for key, value := range attrs {
		msg.Header.Set(key, value)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return "", err
	}
	return messageID, nil
}

func (n *NATSClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("nats subject is required")
	}

	sub, err := n.conn.Subscribe(channel, func(msg *nats.Msg) {
		attrs := make(map[string]string, len(msg.Header))
		for key := range msg.Header {
			if key == nats.MsgIdHdr {
				continue
			}
			attrs[key] = msg.Header.Get(key)
		}

		message := Message{
			ID:         msg.Header.Get(nats.MsgIdHdr),
			Data:       msg.Data,
			Attributes: attrs,
		}
		if err := handler(ctx, message); err != nil {
			logrus.WithError(err).WithField("subject", channel).Warn("NATS handler failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

func (n *NATSClient) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
