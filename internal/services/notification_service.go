// internal/services/notification_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/mq"
)

// OfferEventsChannel carries every offer state change.
const OfferEventsChannel = "offer-events"

type OfferEventType string

const (
	OfferEventSubmitted OfferEventType = "offer.submitted"
	OfferEventAccepted  OfferEventType = "offer.accepted"
	OfferEventRejected  OfferEventType = "offer.rejected"

	// NotificationSnapshot is sent once when a websocket connects.
	NotificationSnapshot OfferEventType = "offers.snapshot"
)

// OfferEvent is published after the change it describes has committed.
// RecipientID is the user who should hear about it.
type OfferEvent struct {
	Type        OfferEventType     `json:"type"`
	OfferID     uuid.UUID          `json:"offer_id"`
	ListingID   uuid.UUID          `json:"listing_id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	Amount      float64            `json:"amount"`
	Status      models.OfferStatus `json:"status"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Notification is what a connected websocket client receives.
type Notification struct {
	Type         OfferEventType     `json:"type"`
	OfferID      uuid.UUID          `json:"offer_id"`
	ListingID    uuid.UUID          `json:"listing_id"`
	Status       models.OfferStatus `json:"status"`
	Amount       float64            `json:"amount"`
	PendingCount int64              `json:"pending_count"`
}

// Notifier delivers a payload to every live connection of a user.
type Notifier interface {
	SendToUser(userID string, payload []byte)
}

// PendingCounter reports how many pending offers a user has received.
type PendingCounter interface {
	CountPendingOffersReceived(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type NotificationService struct {
	queue *mq.MQ
}

func NewNotificationService(queue *mq.MQ) *NotificationService {
	return &NotificationService{queue: queue}
}

func newOfferEvent(eventType OfferEventType, offer *models.Offer, recipientID uuid.UUID) OfferEvent {
	return OfferEvent{
		Type:        eventType,
		OfferID:     offer.ID,
		ListingID:   offer.ListingID,
		RecipientID: recipientID,
		Amount:      offer.Amount,
		Status:      offer.Status,
		OccurredAt:  time.Now().UTC(),
	}
}

// PublishOfferEvents never fails the caller: the state change is already
// committed, so a broker outage only costs the live notification.
func (s *NotificationService) PublishOfferEvents(ctx context.Context, events ...OfferEvent) {
	if s == nil || s.queue == nil {
		return
	}

	for _, event := range events {
		attrs := map[string]string{"event_type": string(event.Type)}
		if _, err := s.queue.PublishJSON(ctx, OfferEventsChannel, event, attrs); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event_type": event.Type,
				"offer_id":   event.OfferID,
			}).Warn("Failed to publish offer event")
		}
	}
}

// RunRelay forwards offer events to websocket clients until ctx is done.
func (s *NotificationService) RunRelay(ctx context.Context, notifier Notifier, counter PendingCounter) error {
	if s == nil || s.queue == nil {
		return fmt.Errorf("notification relay requires a message queue")
	}

	logrus.WithField("channel", OfferEventsChannel).Info("Notification relay started")
	return s.queue.Subscribe(ctx, OfferEventsChannel, func(ctx context.Context, msg mq.Message) error {
		return s.relay(ctx, msg, notifier, counter)
	})
}

func (s *NotificationService) relay(ctx context.Context, msg mq.Message, notifier Notifier, counter PendingCounter) error {
	var event OfferEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed payloads are dropped; redelivery would not fix them.
		logrus.WithError(err).WithField("message_id", msg.ID).Warn("Discarding malformed offer event")
		return nil
	}

	pending, err := counter.CountPendingOffersReceived(ctx, event.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to count pending offers: %w", err)
	}

	payload, err := json.Marshal(Notification{
		Type:         event.Type,
		OfferID:      event.OfferID,
		ListingID:    event.ListingID,
		Status:       event.Status,
		Amount:       event.Amount,
		PendingCount: pending,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	notifier.SendToUser(event.RecipientID.String(), payload)
	return nil
}
