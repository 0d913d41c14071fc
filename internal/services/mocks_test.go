package services

import (
	"context"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockCatalogRepository is a mock implementation of repository.CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

var _ repository.CatalogRepository = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) GetContacts(ctx context.Context) (*models.Contacts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contacts), args.Error(1)
}

func (m *MockCatalogRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}

func (m *MockCatalogRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = 1
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockCatalogRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockCatalogRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

var _ Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, token, chatID, text string) error {
	args := m.Called(ctx, token, chatID, text)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

var _ OrderEventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishOrderCreated(ctx context.Context, order *models.Order, telegramSent bool) error {
	args := m.Called(ctx, order, telegramSent)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error {
	args := m.Called(ctx, order, oldStatus)
	return args.Error(0)
}
