package catalog

import (
	"context"
	"strings"
	"sync"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"github.com/sirupsen/logrus"
)

// CatalogSection is the anchor the page scrolls to after a category change.
const CatalogSection = "#catalog"

// ProductSource is the part of store.ProductStore the view depends on.
type ProductSource interface {
	LoadProducts(ctx context.Context, category string) store.ProductCollection
	ApplySearch(query, category string) store.ProductCollection
	Snapshot() store.ProductCollection
}

type Viewport interface {
	ScrollTo(selector string)
}

// View is the catalog grid of one visitor: active tab, search query and the
// cards currently shown.
type View struct {
	source      ProductSource
	viewport    Viewport
	placeholder string
	logger      *logrus.Entry

	mu       sync.Mutex
	active   string
	query    string
	loading  bool
	products []models.Product
}

func NewView(source ProductSource, viewport Viewport, placeholder string, logger *logrus.Logger) *View {
	return &View{
		source:      source,
		viewport:    viewport,
		placeholder: placeholder,
		logger:      logger.WithField("component", "catalog_view"),
		active:      models.CategoryAll,
		products:    []models.Product{},
	}
}

// SelectCategory activates a tab and loads its products. The result is
// dropped when another category was selected meanwhile or the store reports
// it stale. It reports whether the grid was updated.
func (v *View) SelectCategory(ctx context.Context, category string) bool {
	return v.CompleteCategory(ctx, v.BeginCategory(category))
}

// BeginCategory activates a tab and shows the loading placeholder until a
// load for that tab is shown. It returns the normalized category.
func (v *View) BeginCategory(category string) string {
	category = models.NormalizeCategory(strings.TrimSpace(category))

	v.mu.Lock()
	v.active = category
	v.query = ""
	v.loading = true
	v.mu.Unlock()
	return category
}

// CompleteCategory loads a category started with BeginCategory and scrolls
// to the catalog once the grid shows it.
func (v *View) CompleteCategory(ctx context.Context, category string) bool {
	if !v.LoadCategory(ctx, category) {
		return false
	}
	v.viewport.ScrollTo(CatalogSection)
	return true
}

// LoadCategory loads a category started with BeginCategory. When the store
// was overtaken by a load for another tab while this tab is still the one
// awaited, the load is issued again so it becomes the newest.
func (v *View) LoadCategory(ctx context.Context, category string) bool {
	for {
		collection := v.source.LoadProducts(ctx, category)
		if v.Show(collection) {
			return true
		}
		if !collection.Stale || collection.Latest == category || !v.awaiting(category) || ctx.Err() != nil {
			return false
		}
		v.logger.WithFields(logrus.Fields{
			"category": category,
			"latest":   collection.Latest,
		}).Debug("Reissuing category load overtaken by an inactive tab")
	}
}

func (v *View) awaiting(category string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading && v.active == category
}

// Show puts a loaded collection on the grid unless it is stale or belongs to
// a tab that is no longer active. A query typed while the load was in flight
// is applied to the new products.
func (v *View) Show(collection store.ProductCollection) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if collection.Stale || v.active != collection.Category {
		v.logger.WithFields(logrus.Fields{
			"category": collection.Category,
			"active":   v.active,
			"stale":    collection.Stale,
		}).Debug("Ignoring outdated category load")
		return false
	}
	v.loading = false
	v.products = collection.Filtered
	if strings.TrimSpace(v.query) != "" {
		v.products = v.source.ApplySearch(v.query, v.active).Filtered
	}
	return true
}

// Search filters the active category. A blank query shows everything again.
func (v *View) Search(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	collection := v.source.ApplySearch(query, v.active)
	v.query = query
	v.products = collection.Filtered
}

func (v *View) ActiveCategory() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Products returns the cards currently shown.
func (v *View) Products() []models.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Product(nil), v.products...)
}
