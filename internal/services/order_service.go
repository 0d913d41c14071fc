package services

import (
	"context"
	"fmt"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// Messenger delivers a formatted notification to the operators' chat.
type Messenger interface {
	SendMessage(ctx context.Context, token, chatID, text string) error
}

// OrderEventPublisher is satisfied by events.Publisher.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order, telegramSent bool) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error
}

type OrderService struct {
	repo      repository.CatalogRepository
	settings  *SiteSettingsService
	messenger Messenger
	publisher OrderEventPublisher
	now       func() time.Time
	logger    *logrus.Entry
}

// NewOrderService creates the order service. publisher may be nil.
func NewOrderService(repo repository.CatalogRepository, settings *SiteSettingsService, messenger Messenger, publisher OrderEventPublisher, logger *logrus.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		settings:  settings,
		messenger: messenger,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.WithField("component", "order_service"),
	}
}

// CreateOrder stores the lead and relays it to the messenger. A relay failure
// is reported through TelegramSent and never fails the order.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, *models.OrderResult, error) {
	order := req.ToOrder()
	order.Date = s.now().Format(models.OrderDateLayout)

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to save order: %w", err)
	}

	log := s.logger.WithField("orderId", order.ID)
	log.Info("Order created")

	telegramSent := s.relay(ctx, order, log)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order, telegramSent); err != nil {
			log.WithError(err).Warn("Failed to publish order.created event")
		}
	}

	return order, &models.OrderResult{
		Success:      true,
		OrderID:      order.ID,
		TelegramSent: telegramSent,
		Status:       models.OrderResultAccepted,
	}, nil
}

func (s *OrderService) relay(ctx context.Context, order *models.Order, log *logrus.Entry) bool {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		log.WithError(err).Warn("Using configured settings for relay")
	}
	if !settings.HasTelegram() {
		log.Debug("Telegram relay not configured")
		return false
	}
	if err := s.messenger.SendMessage(ctx, settings.TelegramBotToken, settings.TelegramChatID, clients.FormatOrderMessage(settings.SiteName, order)); err != nil {
		log.WithError(err).Warn("Failed to relay order to Telegram")
		return false
	}
	return true
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along the status workflow.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateOrderStatusTransition(current.Status, status); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderId": id,
		"from":    current.Status,
		"to":      status,
	}).Info("Order status changed")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderStatusChanged(ctx, updated, current.Status); err != nil {
			s.logger.WithError(err).Warn("Failed to publish order.status_changed event")
		}
	}
	return updated, nil
}
