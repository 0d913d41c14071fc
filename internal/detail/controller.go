// Package detail drives the product detail modal: image gallery, paged
// feature list, fullscreen sub-mode and keyboard handling.
package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	// PageSize is how many features one page of the modal lists.
	PageSize = 5

	NotFoundMessage    = "Информация о товаре не найдена"
	DefaultDescription = "Подробное описание товара. Все характеристики указаны ниже."
	NoFeaturesMessage  = "Характеристики отсутствуют"
)

// ProductLookup is the part of store.ProductStore the controller depends on.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id models.ProductID) (*models.Product, error)
}

type Viewport interface {
	SetScrollLocked(locked bool)
}

// session is the state of one opened product.
type session struct {
	product     models.Product
	images      []string
	imageIndex  int
	featurePage int
}

func (s *session) totalPages() int {
	n := len(s.product.Features)
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Controller is the detail modal of one visitor. At most one product is
// open at a time.
type Controller struct {
	lookup      ProductLookup
	viewport    Viewport
	placeholder string
	logger      *logrus.Entry

	mu      sync.Mutex
	state   State
	session *session
	message string
}

func NewController(lookup ProductLookup, viewport Viewport, placeholder string, logger *logrus.Logger) *Controller {
	return &Controller{
		lookup:      lookup,
		viewport:    viewport,
		placeholder: placeholder,
		logger:      logger.WithField("component", "product_detail"),
		state:       StateClosed,
	}
}

// Open closes any open product and shows the requested one from its first
// image and first feature page. When the product cannot be found the modal
// stays closed and store.ErrProductNotFound is returned.
func (c *Controller) Open(ctx context.Context, id models.ProductID) error {
	c.mu.Lock()
	c.closeLocked()
	c.message = ""
	c.mu.Unlock()

	product, err := c.lookup.GetProductByID(ctx, id)
	if err != nil || product == nil {
		if err != nil && !errors.Is(err, store.ErrProductNotFound) {
			c.logger.WithError(err).WithField("productId", id).Warn("Product lookup failed")
		}
		c.mu.Lock()
		c.message = NotFoundMessage
		c.mu.Unlock()
		return fmt.Errorf("open product %s: %w", id, store.ErrProductNotFound)
	}

	images := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		if img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		images = append(images, c.placeholder)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// a concurrent Open may have won the race; it is replaced
	c.closeLocked()
	if err := c.transitionLocked(StateViewing); err != nil {
		return err
	}
	c.session = &session{product: *product, images: images}
	c.viewport.SetScrollLocked(true)
	c.logger.WithField("productId", id).Debug("Product details opened")
	return nil
}

func (c *Controller) transitionLocked(to State) error {
	if err := validateTransition(c.state, to); err != nil {
		return err
	}
	c.state = to
	return nil
}

func (c *Controller) closeLocked() {
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.session = nil
	c.viewport.SetScrollLocked(false)
}

// Close leaves the modal from either open state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Backdrop handles a click outside the modal content.
func (c *Controller) Backdrop() {
	c.Close()
}

// Expand enters the fullscreen image view.
func (c *Controller) Expand() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateViewing {
		_ = c.transitionLocked(StateFullscreen)
	}
}

// Collapse leaves fullscreen keeping the current image.
func (c *Controller) Collapse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFullscreen {
		_ = c.transitionLocked(StateViewing)
	}
}

func (c *Controller) showLocked(index int) {
	if c.session == nil || index < 0 || index >= len(c.session.images) {
		return
	}
	c.session.imageIndex = index
}

func (c *Controller) ShowImage(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLocked(index)
}

func (c *Controller) NextImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || len(c.session.images) <= 1 {
		return
	}
	c.showLocked((c.session.imageIndex + 1) % len(c.session.images))
}

func (c *Controller) PrevImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || len(c.session.images) <= 1 {
		return
	}
	n := len(c.session.images)
	c.showLocked((c.session.imageIndex - 1 + n) % n)
}

func (c *Controller) FirstImage() {
	c.ShowImage(0)
}

func (c *Controller) LastImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.showLocked(len(c.session.images) - 1)
}

func (c *Controller) NextFeaturesPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	if c.session.featurePage < c.session.totalPages()-1 {
		c.session.featurePage++
	}
}

func (c *Controller) PrevFeaturesPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	if c.session.featurePage > 0 {
		c.session.featurePage--
	}
}

// HandleKey applies a keyboard shortcut and reports whether it was used.
// Escape steps back one level: fullscreen to modal, modal to closed.
func (c *Controller) HandleKey(key string, ctrl bool) bool {
	switch c.State() {
	case StateClosed:
		return false
	case StateFullscreen:
		if key == "f" || key == "F" {
			return false
		}
	}

	switch key {
	case "ArrowLeft":
		c.PrevImage()
	case "ArrowRight":
		c.NextImage()
	case "Home":
		c.FirstImage()
	case "End":
		c.LastImage()
	case "Escape":
		if c.State() == StateFullscreen {
			c.Collapse()
		} else {
			c.Close()
		}
	case "f", "F":
		if !ctrl {
			return false
		}
		c.Expand()
	default:
		return false
	}
	return true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message is the notice left by the last failed Open.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Product returns the open product, or nil when closed.
func (c *Controller) Product() *models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	product := c.session.product
	return &product
}

type Thumbnail struct {
	Index  int
	Number int
	Image  string
	Active bool
}

// Snapshot is everything the modal shows at one moment.
type Snapshot struct {
	State      State
	Open       bool
	Fullscreen bool
	// page scroll is locked while the modal is open
	ScrollLocked bool
	Message      string

	ProductID    string
	Title        string
	Category     string
	CategoryName string
	Price        string
	OldPrice     string
	Badge        string
	Sale         string
	Description  string

	Image            string
	ImageIndex       int
	ImageNumber      int
	ImageCount       int
	Thumbnails       []Thumbnail
	ImageNavDisabled bool

	Features         []string
	NoFeatures       bool
	FeaturePage      int
	FeaturePages     int
	PageInfo         string
	PrevPageDisabled bool
	NextPageDisabled bool

	Specs       []SpecRow
	Placeholder string
}

// View returns a snapshot of the modal.
func (c *Controller) View() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:       c.state,
		Message:     c.message,
		Placeholder: c.placeholder,
	}
	s := c.session
	if s == nil {
		return snap
	}

	p := s.product
	snap.Open = true
	snap.ScrollLocked = true
	snap.Fullscreen = c.state == StateFullscreen
	snap.ProductID = p.ID.String()
	snap.Title = p.Title
	snap.Category = p.Category
	snap.CategoryName = models.CategoryName(p.Category)
	snap.Price = p.Price
	snap.OldPrice = deref(p.OldPrice)
	snap.Badge = deref(p.Badge)
	snap.Sale = deref(p.Sale)
	snap.Description = deref(p.Description)
	if snap.Description == "" {
		snap.Description = DefaultDescription
	}

	snap.Image = s.images[s.imageIndex]
	snap.ImageIndex = s.imageIndex
	snap.ImageNumber = s.imageIndex + 1
	snap.ImageCount = len(s.images)
	snap.ImageNavDisabled = len(s.images) <= 1
	snap.Thumbnails = make([]Thumbnail, len(s.images))
	for i, img := range s.images {
		snap.Thumbnails[i] = Thumbnail{Index: i, Number: i + 1, Image: img, Active: i == s.imageIndex}
	}

	pages := s.totalPages()
	start := s.featurePage * PageSize
	end := start + PageSize
	if end > len(p.Features) {
		end = len(p.Features)
	}
	if start < end {
		snap.Features = append([]string(nil), p.Features[start:end]...)
	}
	snap.NoFeatures = len(p.Features) == 0
	snap.FeaturePage = s.featurePage + 1
	snap.FeaturePages = pages
	snap.PageInfo = fmt.Sprintf("Страница %d из %d", snap.FeaturePage, pages)
	snap.PrevPageDisabled = s.featurePage == 0
	snap.NextPageDisabled = s.featurePage >= pages-1

	snap.Specs = SpecRows(p.Specifications)
	return snap
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
