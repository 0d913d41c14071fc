package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrProductNotFound = errors.New("product not found")

// errEmptyResponse stands in for a gateway answer that carried no data. It is
// handled like a transport failure.
var errEmptyResponse = errors.New("gateway returned no data")

// Source tells where the committed collection came from.
type Source string

const (
	SourceNone     Source = ""
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Gateway is the remote catalog API. clients.GatewayClient implements it.
type Gateway interface {
	ListProducts(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, id models.ProductID) (*models.Product, error)
	GetContacts(ctx context.Context) (*models.Contacts, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderResult, error)
}

// Messenger relays an order directly when the gateway is down.
type Messenger interface {
	SendMessage(ctx context.Context, token, chatID, text string) error
}

// ProductCollection is a read-only snapshot of the store.
type ProductCollection struct {
	Category   string
	All        []models.Product
	Filtered   []models.Product
	Source     Source
	Generation uint64
	// Stale is set when a newer load was issued while this one was in flight;
	// a stale collection was not committed.
	Stale bool
	// Latest is the category of the newest issued load, set on stale
	// collections.
	Latest string
}

type Options struct {
	Placeholder string
	// Settings known without the gateway, used for the direct relay.
	LocalSettings models.Settings
	Logger        *logrus.Logger
}

// ProductStore holds the catalog of one storefront session.
type ProductStore struct {
	gateway       Gateway
	messenger     Messenger
	placeholder   string
	localSettings models.Settings
	logger        *logrus.Entry
	now           func() time.Time

	mu        sync.RWMutex
	category  string
	all       []models.Product
	filtered  []models.Product
	source    Source
	issued    uint64
	committed uint64
	// category of the newest issued load
	issuedCategory string
	contacts       *models.Contacts
	settings       *models.Settings
}

func NewProductStore(gateway Gateway, messenger Messenger, opts Options) *ProductStore {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProductStore{
		gateway:       gateway,
		messenger:     messenger,
		placeholder:   opts.Placeholder,
		localSettings: opts.LocalSettings,
		logger:        logger.WithField("component", "product_store"),
		now:           time.Now,
		category:      models.CategoryAll,
		all:           []models.Product{},
		filtered:      []models.Product{},
	}
}

func (s *ProductStore) normalize(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i := range products {
		out[i] = products[i]
		out[i].Normalize(s.placeholder)
	}
	return out
}

// LoadProducts fetches the category from the gateway, falling back to the
// built-in dataset on any failure. It never fails. A result whose load was
// overtaken by a newer one is returned with Stale set and is not committed.
func (s *ProductStore) LoadProducts(ctx context.Context, category string) ProductCollection {
	category = models.NormalizeCategory(category)

	s.mu.Lock()
	s.issued++
	generation := s.issued
	s.issuedCategory = category
	s.mu.Unlock()

	products, source := s.fetch(ctx, category)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.issued {
		s.logger.WithFields(logrus.Fields{
			"category":   category,
			"generation": generation,
			"latest":     s.issued,
		}).Debug("Discarding stale product load")
		return ProductCollection{
			Category:   category,
			All:        products,
			Filtered:   products,
			Source:     source,
			Generation: generation,
			Stale:      true,
			Latest:     s.issuedCategory,
		}
	}

	s.category = category
	s.all = products
	s.filtered = products
	s.source = source
	s.committed = generation
	return s.snapshotLocked()
}

func (s *ProductStore) fetch(ctx context.Context, category string) ([]models.Product, Source) {
	products, err := s.gateway.ListProducts(ctx, category)
	if err != nil {
		fallback := FallbackProducts(category)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"category": category,
			"count":    len(fallback),
		}).Warn("Product load failed, using built-in catalog")
		return s.normalize(fallback), SourceFallback
	}
	s.logger.WithFields(logrus.Fields{"category": category, "count": len(products)}).Debug("Products loaded")
	return s.normalize(products), SourceRemote
}

func (s *ProductStore) snapshotLocked() ProductCollection {
	return ProductCollection{
		Category:   s.category,
		All:        append([]models.Product(nil), s.all...),
		Filtered:   append([]models.Product(nil), s.filtered...),
		Source:     s.source,
		Generation: s.committed,
	}
}

// Snapshot returns the committed collection.
func (s *ProductStore) Snapshot() ProductCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// LatestGeneration is the generation of the newest issued load.
func (s *ProductStore) LatestGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issued
}

// GetProductByID looks in the loaded collection first, then asks the gateway
// once. Any failure of the remote lookup counts as not found.
func (s *ProductStore) GetProductByID(ctx context.Context, id models.ProductID) (*models.Product, error) {
	s.mu.RLock()
	for i := range s.all {
		if s.all[i].ID == id {
			product := s.all[i]
			s.mu.RUnlock()
			return &product, nil
		}
	}
	s.mu.RUnlock()

	product, err := s.gateway.GetProduct(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("productId", id).Warn("Remote product lookup failed")
		return nil, ErrProductNotFound
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	product.Normalize(s.placeholder)
	return product, nil
}

// SearchProducts matches the query against title, description and features
// of the loaded products. It does not change the store.
func (s *ProductStore) SearchProducts(query, category string) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchProducts(s.all, query, category)
}

func searchProducts(products []models.Product, query, category string) []models.Product {
	out := make([]models.Product, 0)
	for i := range products {
		if products[i].InCategory(category) && products[i].Matches(query) {
			out = append(out, products[i])
		}
	}
	return out
}

// ApplySearch replaces the filtered collection with the search result. A
// blank query restores the full collection.
func (s *ProductStore) ApplySearch(query, category string) ProductCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		s.filtered = s.all
	} else {
		s.filtered = searchProducts(s.all, query, category)
	}
	return s.snapshotLocked()
}

// Categories returns the distinct categories of the loaded products.
func (s *ProductStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range s.all {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

// DiscountedProducts returns loaded products with a sale label or a promo badge.
func (s *ProductStore) DiscountedProducts() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0)
	for i := range s.all {
		if s.all[i].IsDiscounted() {
			out = append(out, s.all[i])
		}
	}
	return out
}

// CreateOrder submits the order to the gateway. When the gateway cannot be
// reached the order is relayed straight to the messenger and reported as a
// degraded success with a time-based id.
func (s *ProductStore) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) models.OrderResult {
	result, err := s.gateway.CreateOrder(ctx, req)
	if err == nil && result == nil {
		err = errEmptyResponse
	}
	if err == nil {
		return *result
	}
	if errors.Is(err, clients.ErrGatewayRejected) {
		s.logger.WithError(err).Info("Order rejected by gateway")
		return models.OrderResult{Success: false, Status: models.OrderResultRejected}
	}

	s.logger.WithError(err).Warn("Order submission failed, relaying directly")

	now := s.now()
	order := req.ToOrder()
	order.Date = now.Format(models.OrderDateLayout)

	sent := false
	settings := s.relaySettings()
	if settings.HasTelegram() {
		if err := s.messenger.SendMessage(ctx, settings.TelegramBotToken, settings.TelegramChatID, clients.FormatOrderMessage(settings.SiteName, order)); err != nil {
			s.logger.WithError(err).Error("Direct relay failed")
		} else {
			sent = true
		}
	}

	return models.OrderResult{
		Success:      true,
		OrderID:      now.UnixMilli(),
		TelegramSent: sent,
		Fallback:     true,
		Status:       models.OrderResultDegraded,
	}
}

func (s *ProductStore) relaySettings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings != nil {
		return s.localSettings.Merge(*s.settings)
	}
	return s.localSettings
}

// LoadContacts returns the gateway contacts or the built-in ones.
func (s *ProductStore) LoadContacts(ctx context.Context) models.Contacts {
	contacts, err := s.gateway.GetContacts(ctx)
	if err == nil && contacts == nil {
		err = errEmptyResponse
	}
	if err != nil {
		s.logger.WithError(err).Warn("Contacts load failed, using defaults")
		c := DefaultContacts
		contacts = &c
	}

	s.mu.Lock()
	s.contacts = contacts
	s.mu.Unlock()
	return *contacts
}

// LoadSettings returns the gateway settings completed with the local ones, or
// the local settings alone when the gateway is down.
func (s *ProductStore) LoadSettings(ctx context.Context) models.Settings {
	remote, err := s.gateway.GetSettings(ctx)
	if err == nil && remote == nil {
		err = errEmptyResponse
	}
	var settings models.Settings
	if err != nil {
		s.logger.WithError(err).Warn("Settings load failed, using local settings")
		settings = s.localSettings
	} else {
		settings = remote.Merge(s.localSettings)
	}

	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return settings
}

// Init loads products, contacts and settings concurrently.
func (s *ProductStore) Init(ctx context.Context) ProductCollection {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.LoadContacts(ctx)
	}()
	go func() {
		defer wg.Done()
		s.LoadSettings(ctx)
	}()
	collection := s.LoadProducts(ctx, models.CategoryAll)
	wg.Wait()
	return collection
}

// Contacts returns the last loaded contacts, or the defaults.
func (s *ProductStore) Contacts() models.Contacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.contacts == nil {
		return DefaultContacts
	}
	return *s.contacts
}

// Settings returns the last loaded settings, or the local ones.
func (s *ProductStore) Settings() models.Settings {
	return s.relaySettings()
}
