package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/haulbid/bidboard-backend/pkg/changefeed"
	"github.com/haulbid/bidboard-backend/pkg/db/models"
	"github.com/haulbid/bidboard-backend/pkg/enums"
	"github.com/haulbid/bidboard-backend/pkg/logger"
	"github.com/haulbid/bidboard-backend/pkg/outbox"
	"github.com/haulbid/bidboard-backend/pkg/outbox/idempotency"
	"github.com/haulbid/bidboard-backend/pkg/outbox/payloads"
)

const notificationConsumer = "award-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type feedPublisher interface {
	Publish(event changefeed.Event) changefeed.Event
}

// Consumer drains notification_requested events and persists in-app
// notification rows, then mirrors each one onto the change feed so
// connected clients update without polling.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	feed         feedPublisher
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer. The feed is optional.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, feed feedPublisher, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		feed:         feed,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithCarrierID(logCtx, payload.CarrierID.String())
	if err := c.persist(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) persist(ctx context.Context, payload payloads.NotificationRequestedEvent, logCtx context.Context) error {
	if payload.CarrierID == uuid.Nil {
		return fmt.Errorf("carrier id missing")
	}
	notificationType, err := enums.ParseNotificationType(payload.Type)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		CarrierID: payload.CarrierID,
		Type:      notificationType,
		Title:     strings.TrimSpace(payload.Title),
		Message:   strings.TrimSpace(payload.Message),
		Link:      payload.Link,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.publishFeed(notification)
	c.logg.Info(logCtx, "notification stored")
	return nil
}

func (c *Consumer) publishFeed(notification *models.Notification) {
	if c.feed == nil {
		return
	}
	raw, err := json.Marshal(map[string]any{
		"notificationId": notification.ID,
		"carrierId":      notification.CarrierID,
		"type":           notification.Type,
		"title":          notification.Title,
	})
	if err != nil {
		return
	}
	c.feed.Publish(changefeed.Event{
		Entity:  changefeed.EntityNotification,
		Type:    string(enums.EventNotificationRequested),
		Key:     notification.CarrierID.String(),
		Payload: raw,
	})
}
