package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache TTL constants
const (
	ProductCacheTTL      = 5 * time.Minute  // Single product cache
	ProductListCacheTTL  = 2 * time.Minute  // Product list cache
	CategoryCacheTTL     = 30 * time.Minute // Categories rarely change
	SiteSettingsCacheTTL = 10 * time.Minute // Contacts and settings
)

const cacheKeyPrefix = "catalog:"

// CachedRepository is a read-through redis cache in front of another
// repository. Orders are never cached. Any redis failure falls through to
// the inner repository.
type CachedRepository struct {
	inner  CatalogRepository
	redis  *redis.Client
	logger *logrus.Entry
}

func NewCachedRepository(inner CatalogRepository, redisClient *redis.Client, logger *logrus.Logger) *CachedRepository {
	return &CachedRepository{
		inner:  inner,
		redis:  redisClient,
		logger: logger.WithField("component", "catalog_cache"),
	}
}

func productListKey(category string) string {
	return fmt.Sprintf("%sproducts:list:%s", cacheKeyPrefix, models.NormalizeCategory(category))
}

func productKey(id models.ProductID) string {
	return fmt.Sprintf("%sproduct:%s", cacheKeyPrefix, id)
}

func (r *CachedRepository) get(ctx context.Context, key string, dst interface{}) bool {
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("cache entry is corrupt")
		return false
	}
	return true
}

func (r *CachedRepository) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (r *CachedRepository) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	key := productListKey(category)
	var products []models.Product
	if r.get(ctx, key, &products) {
		return products, nil
	}

	products, err := r.inner.ListProducts(ctx, category)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, products, ProductListCacheTTL)
	return products, nil
}

func (r *CachedRepository) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	key := productKey(id)
	var product models.Product
	if r.get(ctx, key, &product) {
		return &product, nil
	}

	found, err := r.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, found, ProductCacheTTL)
	return found, nil
}

func (r *CachedRepository) ListCategories(ctx context.Context) ([]string, error) {
	key := cacheKeyPrefix + "categories"
	var categories []string
	if r.get(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := r.inner.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, categories, CategoryCacheTTL)
	return categories, nil
}

func (r *CachedRepository) GetContacts(ctx context.Context) (*models.Contacts, error) {
	key := cacheKeyPrefix + "contacts"
	var contacts models.Contacts
	if r.get(ctx, key, &contacts) {
		return &contacts, nil
	}

	found, err := r.inner.GetContacts(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, found, SiteSettingsCacheTTL)
	return found, nil
}

func (r *CachedRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	key := cacheKeyPrefix + "settings"
	var settings models.Settings
	if r.get(ctx, key, &settings) {
		return &settings, nil
	}

	found, err := r.inner.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, found, SiteSettingsCacheTTL)
	return found, nil
}

func (r *CachedRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.inner.CreateOrder(ctx, order)
}

func (r *CachedRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	return r.inner.ListOrders(ctx)
}

func (r *CachedRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.inner.GetOrder(ctx, id)
}

func (r *CachedRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	return r.inner.UpdateOrderStatus(ctx, id, status)
}

// Invalidate drops every cached catalog entry.
func (r *CachedRepository) Invalidate(ctx context.Context) error {
	iter := r.redis.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.redis.Del(ctx, keys...).Err()
}

var _ CatalogRepository = (*CachedRepository)(nil)
