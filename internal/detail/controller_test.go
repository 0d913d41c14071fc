package detail

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/viewport"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeholder = "https://placeholder.test/500x350"

type fakeLookup struct {
	products map[models.ProductID]models.Product
	err      error
	calls    int
}

func (f *fakeLookup) GetProductByID(ctx context.Context, id models.ProductID) (*models.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	return &p, nil
}

func strPtr(s string) *string { return &s }

func testProducts() map[models.ProductID]models.Product {
	return map[models.ProductID]models.Product{
		"1": {
			ID: "1", Category: "houses", Title: "Бытовка СТАНДАРТ", Price: "280 600₽",
			Images: []string{"a.png", "b.png", "c.png"},
			Features: []string{
				"f1", "f2", "f3", "f4", "f5", "f6", "f7",
			},
			Sale:           strPtr("-10%"),
			Specifications: models.Specifications{"area": "14,4 м²", "floor_insulation": "100 мм", "door_type": "металл"},
		},
		"2": {
			ID: "2", Category: "offices", Title: "Офис", Price: "597 800 ₽",
			Images:      []string{"only.png"},
			Description: strPtr("Офисный модуль"),
		},
		"3": {
			ID: "3", Category: "storage", Title: "Склад", Price: "100 ₽",
		},
	}
}

func newTestController() (*Controller, *viewport.Recorder, *fakeLookup) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	lookup := &fakeLookup{products: testProducts()}
	rec := viewport.NewRecorder()
	return NewController(lookup, rec, placeholder, logger), rec, lookup
}

func TestOpenInitializesSession(t *testing.T) {
	c, rec, _ := newTestController()

	require.NoError(t, c.Open(context.Background(), "1"))

	snap := c.View()
	assert.Equal(t, StateViewing, snap.State)
	assert.True(t, snap.Open)
	assert.True(t, snap.ScrollLocked)
	assert.True(t, rec.ScrollLocked())
	assert.Equal(t, "a.png", snap.Image)
	assert.Equal(t, 1, snap.ImageNumber)
	assert.Equal(t, 3, snap.ImageCount)
	assert.False(t, snap.ImageNavDisabled)
	assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5"}, snap.Features)
	assert.Equal(t, "Страница 1 из 2", snap.PageInfo)
	assert.True(t, snap.PrevPageDisabled)
	assert.False(t, snap.NextPageDisabled)
	assert.Equal(t, "Модульные дома", snap.CategoryName)
	assert.Equal(t, DefaultDescription, snap.Description)
	require.Len(t, snap.Thumbnails, 3)
	assert.True(t, snap.Thumbnails[0].Active)
	assert.False(t, snap.Thumbnails[1].Active)
}

func TestOpenNotFoundStaysClosed(t *testing.T) {
	c, rec, _ := newTestController()

	err := c.Open(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, NotFoundMessage, c.Message())
	assert.False(t, rec.ScrollLocked())
	assert.Nil(t, c.Product())
}

func TestOpenLookupFailureIsNotFound(t *testing.T) {
	c, _, lookup := newTestController()
	lookup.err = errors.New("connection refused")

	err := c.Open(context.Background(), "1")
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
	assert.Equal(t, StateClosed, c.State())
}

func TestReopenResetsIndices(t *testing.T) {
	c, _, _ := newTestController()
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, "1"))
	c.NextImage()
	c.NextFeaturesPage()
	c.Expand()
	require.Equal(t, StateFullscreen, c.State())

	require.NoError(t, c.Open(ctx, "2"))
	snap := c.View()
	assert.Equal(t, StateViewing, snap.State)
	assert.Equal(t, "Офис", snap.Title)
	assert.Equal(t, 0, snap.ImageIndex)
	assert.Equal(t, 1, snap.FeaturePage)

	c.Close()
	require.NoError(t, c.Open(ctx, "1"))
	snap = c.View()
	assert.Equal(t, 0, snap.ImageIndex)
	assert.Equal(t, 1, snap.FeaturePage)
}

func TestImageWraparound(t *testing.T) {
	c, _, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "1"))

	c.PrevImage()
	assert.Equal(t, 2, c.View().ImageIndex)
	c.NextImage()
	assert.Equal(t, 0, c.View().ImageIndex)

	for i := 0; i < 7; i++ {
		c.NextImage()
	}
	assert.Equal(t, 1, c.View().ImageIndex)
}

func TestSingleImageNavigationIsNoop(t *testing.T) {
	c, _, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "2"))

	c.NextImage()
	c.PrevImage()
	snap := c.View()
	assert.Equal(t, 0, snap.ImageIndex)
	assert.True(t, snap.ImageNavDisabled)
	assert.Equal(t, "Офисный модуль", snap.Description)
}

func TestShowImageOutOfRange(t *testing.T) {
	c, _, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "1"))

	c.ShowImage(2)
	assert.Equal(t, 2, c.View().ImageIndex)
	c.ShowImage(3)
	c.ShowImage(-1)
	assert.Equal(t, 2, c.View().ImageIndex)

	c.FirstImage()
	assert.Equal(t, 0, c.View().ImageIndex)
	c.LastImage()
	assert.Equal(t, 2, c.View().ImageIndex)
}

func TestFeaturePagingClamped(t *testing.T) {
	c, _, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "1"))

	c.PrevFeaturesPage()
	assert.Equal(t, 1, c.View().FeaturePage)

	c.NextFeaturesPage()
	c.NextFeaturesPage()
	c.NextFeaturesPage()
	snap := c.View()
	assert.Equal(t, 2, snap.FeaturePage)
	assert.Equal(t, []string{"f6", "f7"}, snap.Features)
	assert.Equal(t, "Страница 2 из 2", snap.PageInfo)
	assert.True(t, snap.NextPageDisabled)
	assert.False(t, snap.PrevPageDisabled)
}

func TestNoFeaturesSinglePage(t *testing.T) {
	c, _, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "3"))

	c.NextFeaturesPage()
	snap := c.View()
	assert.True(t, snap.NoFeatures)
	assert.Empty(t, snap.Features)
	assert.Equal(t, "Страница 1 из 1", snap.PageInfo)
	assert.True(t, snap.PrevPageDisabled)
	assert.True(t, snap.NextPageDisabled)
	// no images falls back to the placeholder
	assert.Equal(t, placeholder, snap.Image)
	assert.Equal(t, 1, snap.ImageCount)
}

func TestFullscreenKeepsIndex(t *testing.T) {
	c, rec, _ := newTestController()
	require.NoError(t, c.Open(context.Background(), "1"))

	c.ShowImage(1)
	c.Expand()
	assert.True(t, c.View().Fullscreen)
	c.NextImage()
	c.Collapse()

	snap := c.View()
	assert.Equal(t, StateViewing, snap.State)
	assert.Equal(t, 2, snap.ImageIndex)

	c.Expand()
	c.Backdrop()
	assert.Equal(t, StateClosed, c.State())
	assert.False(t, rec.ScrollLocked())
}

func TestHandleKey(t *testing.T) {
	c, _, _ := newTestController()

	assert.False(t, c.HandleKey("ArrowRight", false))

	require.NoError(t, c.Open(context.Background(), "1"))
	assert.True(t, c.HandleKey("ArrowRight", false))
	assert.Equal(t, 1, c.View().ImageIndex)
	assert.True(t, c.HandleKey("ArrowLeft", false))
	assert.True(t, c.HandleKey("End", false))
	assert.Equal(t, 2, c.View().ImageIndex)
	assert.True(t, c.HandleKey("Home", false))
	assert.Equal(t, 0, c.View().ImageIndex)

	assert.False(t, c.HandleKey("f", false))
	assert.Equal(t, StateViewing, c.State())
	assert.True(t, c.HandleKey("F", true))
	assert.Equal(t, StateFullscreen, c.State())

	assert.True(t, c.HandleKey("Escape", false))
	assert.Equal(t, StateViewing, c.State())
	assert.True(t, c.HandleKey("Escape", false))
	assert.Equal(t, StateClosed, c.State())

	assert.False(t, c.HandleKey("Tab", false))
}

func TestNavigationWhileClosedNeverPanics(t *testing.T) {
	c, _, _ := newTestController()

	assert.NotPanics(t, func() {
		c.NextImage()
		c.PrevImage()
		c.ShowImage(5)
		c.FirstImage()
		c.LastImage()
		c.NextFeaturesPage()
		c.PrevFeaturesPage()
		c.Expand()
		c.Collapse()
		c.Close()
		c.Backdrop()
	})
	assert.Equal(t, StateClosed, c.State())
}

func TestSpecRows(t *testing.T) {
	rows := SpecRows(models.Specifications{
		"door_type":        "металл",
		"floor_insulation": "100 мм",
		"area":             "14,4 м²",
	})

	require.Len(t, rows, 3)
	assert.Equal(t, SpecRow{Key: "area", Label: "Площадь", Value: "14,4 м²"}, rows[0])
	assert.Equal(t, "Утепление пола", rows[1].Label)
	assert.Equal(t, "Door type", rows[2].Label)
	assert.Nil(t, SpecRows(nil))
}

func TestRender(t *testing.T) {
	c, _, _ := newTestController()

	html, err := c.Render()
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(html)))

	require.Error(t, c.Open(context.Background(), "404"))
	html, err = c.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), NotFoundMessage)

	require.NoError(t, c.Open(context.Background(), "1"))
	html, err = c.Render()
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Бытовка СТАНДАРТ")
	assert.Contains(t, out, "Страница 1 из 2")
	assert.Contains(t, out, "Площадь:")
	assert.Contains(t, out, "Заказать консультацию")
	assert.Contains(t, out, "Полноэкранный просмотр")
	assert.NotContains(t, out, "fullscreen-mode")

	c.Expand()
	html, err = c.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), "fullscreen-mode")
}
