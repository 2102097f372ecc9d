package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/mail"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox/payloads"
)

const statusMailConsumer = "status-mail"

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches domain events and mails customers about order status
// transitions. Every other event type is acknowledged untouched.
type Consumer struct {
	users        userLoader
	mailer       mail.Mailer
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the status mail consumer.
func NewConsumer(users userLoader, mailer mail.Mailer, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		users:        users,
		mailer:       mailer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("domain subscription required")
	}
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

	if eventType != string(enums.EventOrderStatusChanged) {
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, statusMailConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, statusMailConsumer, eventID)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_number": payload.OrderNumber,
		"status":       payload.Status,
	})

	if err := c.sendStatusMail(ctx, payload); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Warn(logCtx, "order user no longer exists, skipping mail")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "status mail failed", err)
		_ = c.idempotency.Delete(ctx, statusMailConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "status mail sent")
	return processResult{ack: true}
}

func (c *Consumer) sendStatusMail(ctx context.Context, payload payloads.OrderStatusChangedEvent) error {
	user, err := c.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return err
	}
	return c.mailer.SendStatusUpdate(ctx, mail.StatusUpdate{
		To:           user.Email,
		CustomerName: user.FullName,
		OrderNumber:  payload.OrderNumber,
		Status:       payload.Status,
		Description:  payload.Description,
		Location:     payload.Location,
		ChangedAt:    payload.ChangedAt,
	})
}
