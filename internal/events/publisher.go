package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	StreamOrders = "ORDER_EVENTS"

	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent is published for every captured lead and status change.
type OrderEvent struct {
	EventID      string             `json:"eventId"`
	EventType    string             `json:"eventType"`
	Timestamp    time.Time          `json:"timestamp"`
	OrderID      int64              `json:"orderId"`
	CustomerName string             `json:"customerName"`
	Phone        string             `json:"phone"`
	Email        string             `json:"email,omitempty"`
	Product      string             `json:"product,omitempty"`
	Source       string             `json:"source,omitempty"`
	Status       models.OrderStatus `json:"status"`
	OldStatus    models.OrderStatus `json:"oldStatus,omitempty"`
	TelegramSent bool               `json:"telegramSent"`
}

// Publisher publishes order events to NATS JetStream
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the order stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	log := logger.WithField("component", "order-events")

	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Disconnected from NATS")
			}
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{nc: nc, js: js, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.ensureStream(ctx); err != nil {
		log.WithError(err).Warn("Failed to ensure order stream (may already exist)")
	}

	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamOrders,
		Subjects:  []string{"order.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 30,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	return err
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// PublishOrderCreated publishes an order.created event
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order, telegramSent bool) error {
	event := NewOrderEvent(OrderCreated, order)
	event.TelegramSent = telegramSent
	return p.publish(ctx, event)
}

// PublishOrderStatusChanged publishes an order.status_changed event
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error {
	event := NewOrderEvent(OrderStatusChanged, order)
	event.OldStatus = oldStatus
	return p.publish(ctx, event)
}

// NewOrderEvent builds an event envelope for the order
func NewOrderEvent(eventType string, order *models.Order) *OrderEvent {
	return &OrderEvent{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		Timestamp:    time.Now().UTC(),
		OrderID:      order.ID,
		CustomerName: order.Name,
		Phone:        order.Phone,
		Email:        order.Email,
		Product:      order.Product,
		Source:       order.Source,
		Status:       order.Status,
	}
}

func (p *Publisher) publish(ctx context.Context, event *OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, event.EventType, data, jetstream.WithMsgID(event.EventID))
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"eventType": event.EventType,
			"orderId":   event.OrderID,
		}).Error("Failed to publish order event")
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}

	p.logger.WithFields(logrus.Fields{
		"eventType": event.EventType,
		"orderId":   event.OrderID,
		"sequence":  ack.Sequence,
	}).Debug("Published order event")
	return nil
}
