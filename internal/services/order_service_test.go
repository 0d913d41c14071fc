package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestOrderService(repo *MockCatalogRepository, messenger *MockMessenger, publisher OrderEventPublisher, overrides models.Settings) *OrderService {
	svc := NewOrderService(repo, NewSiteSettingsService(repo, overrides, models.Settings{SiteName: "СибМодулинг", Currency: "₽"}), messenger, publisher, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	return svc
}

func TestOrderService_CreateOrder(t *testing.T) {
	repo := new(MockCatalogRepository)
	messenger := new(MockMessenger)
	publisher := new(MockPublisher)
	ctx := context.Background()

	repo.On("CreateOrder", ctx, mock.AnythingOfType("*models.Order")).Return(nil)
	repo.On("GetSettings", ctx).Return(&models.Settings{
		TelegramBotToken: "stored-token",
		TelegramChatID:   "100",
		SiteName:         "СибМодулинг",
	}, nil)
	messenger.On("SendMessage", ctx, "stored-token", "100", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "СибМодулинг") && strings.Contains(text, "Иван")
	})).Return(nil)
	publisher.On("PublishOrderCreated", ctx, mock.AnythingOfType("*models.Order"), true).Return(nil)

	svc := newTestOrderService(repo, messenger, publisher, models.Settings{})
	order, result, err := svc.CreateOrder(ctx, &models.CreateOrderRequest{Name: "Иван", Phone: "+7 923"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.TelegramSent)
	assert.Equal(t, int64(1), result.OrderID)
	assert.Equal(t, models.OrderResultAccepted, result.Status)
	assert.Equal(t, "2024-05-01 10:30:00", order.Date)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, models.DefaultOrderEmail, order.Email)

	repo.AssertExpectations(t)
	messenger.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_RelayFailureDoesNotFail(t *testing.T) {
	repo := new(MockCatalogRepository)
	messenger := new(MockMessenger)
	ctx := context.Background()

	repo.On("CreateOrder", ctx, mock.Anything).Return(nil)
	repo.On("GetSettings", ctx).Return(&models.Settings{}, nil)
	messenger.On("SendMessage", ctx, "env-token", "200", mock.Anything).Return(errors.New("telegram down"))

	svc := newTestOrderService(repo, messenger, nil, models.Settings{TelegramBotToken: "env-token", TelegramChatID: "200"})
	_, result, err := svc.CreateOrder(ctx, &models.CreateOrderRequest{Name: "Иван", Phone: "+7"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.TelegramSent)
	messenger.AssertExpectations(t)
}

func TestOrderService_CreateOrder_NoCredentials(t *testing.T) {
	repo := new(MockCatalogRepository)
	messenger := new(MockMessenger)
	ctx := context.Background()

	repo.On("CreateOrder", ctx, mock.Anything).Return(nil)
	repo.On("GetSettings", ctx).Return(nil, errors.New("disk error"))

	svc := newTestOrderService(repo, messenger, nil, models.Settings{})
	_, result, err := svc.CreateOrder(ctx, &models.CreateOrderRequest{Name: "Иван", Phone: "+7"})

	require.NoError(t, err)
	assert.False(t, result.TelegramSent)
	messenger.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_SaveFails(t *testing.T) {
	repo := new(MockCatalogRepository)
	ctx := context.Background()
	repo.On("CreateOrder", ctx, mock.Anything).Return(errors.New("read-only file system"))

	svc := newTestOrderService(repo, new(MockMessenger), nil, models.Settings{})
	_, _, err := svc.CreateOrder(ctx, &models.CreateOrderRequest{Name: "Иван", Phone: "+7"})

	assert.Error(t, err)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	repo := new(MockCatalogRepository)
	publisher := new(MockPublisher)
	ctx := context.Background()

	current := &models.Order{ID: 3, Status: models.OrderStatusNew}
	updated := &models.Order{ID: 3, Status: models.OrderStatusProcessing}
	repo.On("GetOrder", ctx, int64(3)).Return(current, nil)
	repo.On("UpdateOrderStatus", ctx, int64(3), models.OrderStatusProcessing).Return(updated, nil)
	publisher.On("PublishOrderStatusChanged", ctx, updated, models.OrderStatusNew).Return(nil)

	svc := newTestOrderService(repo, new(MockMessenger), publisher, models.Settings{})
	got, err := svc.UpdateOrderStatus(ctx, 3, models.OrderStatusProcessing)

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	publisher.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus_Invalid(t *testing.T) {
	repo := new(MockCatalogRepository)
	ctx := context.Background()
	repo.On("GetOrder", ctx, int64(3)).Return(&models.Order{ID: 3, Status: models.OrderStatusCompleted}, nil)
	repo.On("GetOrder", ctx, int64(9)).Return(nil, repository.ErrNotFound)

	svc := newTestOrderService(repo, new(MockMessenger), nil, models.Settings{})

	_, err := svc.UpdateOrderStatus(ctx, 3, models.OrderStatusNew)
	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)

	_, err = svc.UpdateOrderStatus(ctx, 9, models.OrderStatusProcessing)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSiteSettingsService_EnvironmentWins(t *testing.T) {
	repo := new(MockCatalogRepository)
	ctx := context.Background()
	repo.On("GetSettings", ctx).Return(&models.Settings{TelegramBotToken: "stored", SiteName: "Stored", Currency: "₽"}, nil)

	svc := NewSiteSettingsService(repo,
		models.Settings{TelegramBotToken: "env", TelegramChatID: "1"},
		models.Settings{SiteName: "Default", Currency: "$"})
	settings, err := svc.Get(ctx)

	require.NoError(t, err)
	assert.Equal(t, "env", settings.TelegramBotToken)
	assert.Equal(t, "1", settings.TelegramChatID)
	assert.Equal(t, "Stored", settings.SiteName)
	assert.Equal(t, "₽", settings.Currency)
}
