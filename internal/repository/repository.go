package repository

import (
	"context"
	"errors"

	"catalog-service/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// CatalogRepository is the persistence contract behind the gateway API.
type CatalogRepository interface {
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetContacts(ctx context.Context) (*models.Contacts, error)
	GetSettings(ctx context.Context) (*models.Settings, error)

	// CreateOrder assigns the order id and stores the order.
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
}

// distinctCategories returns product categories in first-seen order.
func distinctCategories(products []models.Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
