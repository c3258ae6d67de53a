// internal/mq/memory.go
package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrBrokerClosed = errors.New("broker closed")

// MemoryBroker delivers messages in-process. Publish calls every subscriber
// of the channel synchronously; failed deliveries are logged and dropped.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]Handler
	nextID      int
	closed      bool
	done        chan struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[string]map[int]Handler),
		done:        make(chan struct{}),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return "", ErrBrokerClosed
	}
	handlers := make([]Handler, 0, len(b.subscribers[channel]))
	for _, handler := range b.subscribers[channel] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	message := Message{
		ID:         newMessageID(),
		Data:       data,
		Attributes: attrs,
	}
	for _, handler := range handlers {
		if err := handler(ctx, message); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"channel":    channel,
				"message_id": message.ID,
			}).Warn("In-memory subscriber failed to handle message")
		}
	}
	return message.ID, nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[channel][id] = handler
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subscribers[channel], id)
		b.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBrokerClosed
	}
}

// SubscriberCount reports how many handlers are attached to channel.
func (b *MemoryBroker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}
