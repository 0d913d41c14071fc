// Package consultation connects product actions to the consultation form.
package consultation

import (
	"sync"

	"catalog-service/internal/models"
)

const (
	FormSection = "#consultation"
	NameField   = "#name"
)

// FormSink receives the product the visitor wants to be consulted about.
type FormSink interface {
	SetProduct(value, title string)
}

type Viewport interface {
	ScrollTo(selector string)
	Focus(selector string)
}

// OptionValue is the form option value that identifies a product.
func OptionValue(id models.ProductID) string {
	return "product_" + id.String()
}

// Bridge preselects a product in the form and brings the form into view.
type Bridge struct {
	form     FormSink
	viewport Viewport

	mu   sync.Mutex
	last *models.Product
}

func NewBridge(form FormSink, viewport Viewport) *Bridge {
	return &Bridge{form: form, viewport: viewport}
}

func (b *Bridge) OfferProduct(product models.Product) {
	b.mu.Lock()
	b.last = &product
	b.mu.Unlock()

	b.form.SetProduct(OptionValue(product.ID), product.Title)
	b.viewport.ScrollTo(FormSection)
	b.viewport.Focus(NameField)
}

// LastOffered returns the most recently offered product, if any.
func (b *Bridge) LastOffered() (models.Product, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return models.Product{}, false
	}
	return *b.last, true
}
