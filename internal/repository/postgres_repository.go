package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	settingKeyContacts = "contacts"
	settingKeySettings = "settings"
)

// ProductRecord stores a product document; the listing columns are
// duplicated out of the JSON for filtering and ordering.
type ProductRecord struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Position  int            `gorm:"index;not null;default:0"`
	Category  string         `gorm:"index;size:64"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductRecord) TableName() string {
	return "products"
}

type OrderRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	Phone     string `gorm:"size:64;not null"`
	Email     string `gorm:"size:255"`
	Product   string `gorm:"size:255"`
	Message   string `gorm:"type:text"`
	Consent   string `gorm:"size:16"`
	Date      string `gorm:"size:32"`
	Status    string `gorm:"size:32;index;default:'new'"`
	Source    string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderRecord) TableName() string {
	return "orders"
}

type SiteSettingRecord struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (SiteSettingRecord) TableName() string {
	return "site_settings"
}

func newOrderRecord(o *models.Order) *OrderRecord {
	return &OrderRecord{
		Name:    o.Name,
		Phone:   o.Phone,
		Email:   o.Email,
		Product: o.Product,
		Message: o.Message,
		Consent: o.Consent,
		Date:    o.Date,
		Status:  string(o.Status),
		Source:  o.Source,
	}
}

func (r *OrderRecord) toModel() models.Order {
	return models.Order{
		ID:      r.ID,
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Product: r.Product,
		Message: r.Message,
		Consent: r.Consent,
		Date:    r.Date,
		Status:  models.OrderStatus(r.Status),
		Source:  r.Source,
	}
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates or updates the catalog tables.
func (r *PostgresRepository) Migrate() error {
	if err := r.db.AutoMigrate(&ProductRecord{}, &OrderRecord{}, &SiteSettingRecord{}); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			return nil
		}
		return fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	return nil
}

// Seed imports products, contacts and settings when the products table is
// empty. It reports whether anything was written.
func (r *PostgresRepository) Seed(ctx context.Context, seed *Database) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ProductRecord{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 || seed == nil || len(seed.Products) == 0 {
		return false, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, p := range seed.Products {
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("failed to encode product %s: %w", p.ID, err)
			}
			record := ProductRecord{ID: p.ID.String(), Position: i, Category: p.Category, Data: datatypes.JSON(data)}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
			}
		}
		if err := putSetting(tx, settingKeyContacts, seed.Contacts); err != nil {
			return err
		}
		return putSetting(tx, settingKeySettings, seed.Settings)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func putSetting(tx *gorm.DB, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	record := SiteSettingRecord{Key: key, Value: datatypes.JSON(data)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) getSetting(ctx context.Context, key string, dst interface{}) error {
	var record SiteSettingRecord
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(record.Value, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func decodeProduct(record *ProductRecord) (models.Product, error) {
	var p models.Product
	if err := json.Unmarshal(record.Data, &p); err != nil {
		return p, fmt.Errorf("failed to decode product %s: %w", record.ID, err)
	}
	return p, nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&ProductRecord{})
	if category != "" && category != models.CategoryAll {
		query = query.Where("category = ?", category)
	}

	var records []ProductRecord
	if err := query.Order("position ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(records))
	for i := range records {
		p, err := decodeProduct(&records[i])
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	var record ProductRecord
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p, err := decodeProduct(&record)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]string, error) {
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Select("category", "position", "id").Order("position ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	products := make([]models.Product, len(records))
	for i := range records {
		products[i].Category = records[i].Category
	}
	return distinctCategories(products), nil
}

func (r *PostgresRepository) GetContacts(ctx context.Context) (*models.Contacts, error) {
	var contacts models.Contacts
	if err := r.getSetting(ctx, settingKeyContacts, &contacts); err != nil {
		return nil, err
	}
	return &contacts, nil
}

func (r *PostgresRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := r.getSetting(ctx, settingKeySettings, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	record := newOrderRecord(order)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = record.ID
	return nil
}

func (r *PostgresRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	var records []OrderRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := make([]models.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toModel())
	}
	return orders, nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var record OrderRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order := record.toModel()
	return &order, nil
}

func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	var updated models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record OrderRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if err := models.ValidateOrderStatusTransition(models.OrderStatus(record.Status), status); err != nil {
			return err
		}
		if err := tx.Model(&record).Update("status", string(status)).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		record.Status = string(status)
		updated = record.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

var _ CatalogRepository = (*PostgresRepository)(nil)
