package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"catalog-service/internal/models"
)

// Database is the layout of the JSON data file.
type Database struct {
	Products []models.Product `json:"products"`
	Orders   []models.Order   `json:"orders"`
	Contacts models.Contacts  `json:"contacts"`
	Settings models.Settings  `json:"settings"`
}

// rawDatabase tolerates files where contacts or settings were written as an
// empty array.
type rawDatabase struct {
	Products []models.Product `json:"products"`
	Orders   []models.Order   `json:"orders"`
	Contacts json.RawMessage  `json:"contacts"`
	Settings json.RawMessage  `json:"settings"`
}

// FileRepository keeps the whole catalog in a single JSON file. Every read
// goes to disk so manual edits of the file are picked up; writes are atomic.
type FileRepository struct {
	path string
	mu   sync.RWMutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the data file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the data file. A missing file is an empty database.
func (r *FileRepository) Load() (*Database, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read()
}

func (r *FileRepository) read() (*Database, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Database{Products: []models.Product{}, Orders: []models.Order{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var raw rawDatabase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", r.path, err)
	}

	db := &Database{Products: raw.Products, Orders: raw.Orders}
	if db.Products == nil {
		db.Products = []models.Product{}
	}
	if db.Orders == nil {
		db.Orders = []models.Order{}
	}
	if err := decodeObject(raw.Contacts, &db.Contacts); err != nil {
		return nil, fmt.Errorf("failed to parse contacts: %w", err)
	}
	if err := decodeObject(raw.Settings, &db.Settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return db, nil
}

func decodeObject(raw json.RawMessage, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	return json.Unmarshal(trimmed, dst)
}

func (r *FileRepository) write(db *Database) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(db); err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".db-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// update runs fn against the current database and persists the result.
func (r *FileRepository) update(fn func(db *Database) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return r.write(db)
}

func (r *FileRepository) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	return models.FilterByCategory(db.Products, category), nil
}

func (r *FileRepository) GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	for i := range db.Products {
		if db.Products[i].ID == id {
			product := db.Products[i]
			return &product, nil
		}
	}
	return nil, ErrNotFound
}

func (r *FileRepository) ListCategories(ctx context.Context) ([]string, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	return distinctCategories(db.Products), nil
}

func (r *FileRepository) GetContacts(ctx context.Context) (*models.Contacts, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	return &db.Contacts, nil
}

func (r *FileRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	return &db.Settings, nil
}

func (r *FileRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.update(func(db *Database) error {
		order.ID = int64(len(db.Orders) + 1)
		db.Orders = append(db.Orders, *order)
		return nil
	})
}

func (r *FileRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	return db.Orders, nil
}

func (r *FileRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	db, err := r.Load()
	if err != nil {
		return nil, err
	}
	for i := range db.Orders {
		if db.Orders[i].ID == id {
			order := db.Orders[i]
			return &order, nil
		}
	}
	return nil, ErrNotFound
}

func (r *FileRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := r.update(func(db *Database) error {
		for i := range db.Orders {
			if db.Orders[i].ID != id {
				continue
			}
			if err := models.ValidateOrderStatusTransition(db.Orders[i].Status, status); err != nil {
				return err
			}
			db.Orders[i].Status = status
			order := db.Orders[i]
			updated = &order
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var _ CatalogRepository = (*FileRepository)(nil)
