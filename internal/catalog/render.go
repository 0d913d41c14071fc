package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"catalog-service/internal/models"
)

// MaxCardFeatures is how many features a card lists before the "more" line.
const MaxCardFeatures = 3

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("catalog").ParseFS(templateFS, "templates/*.html"))

type Card struct {
	ID           string
	Category     string
	CategoryName string
	Title        string
	Price        string
	OldPrice     string
	Badge        string
	Sale         string
	Image        string
	Features     []string
	MoreFeatures int
}

type Grid struct {
	Loading     bool
	Empty       bool
	Cards       []Card
	Placeholder string
}

type Tab struct {
	Key    string
	Name   string
	Active bool
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewCard builds the card model of a product.
func NewCard(p models.Product, placeholder string) Card {
	image := p.MainImage()
	if image == "" {
		image = placeholder
	}

	features := p.Features
	more := 0
	if len(features) > MaxCardFeatures {
		more = len(features) - MaxCardFeatures
		features = features[:MaxCardFeatures]
	}

	return Card{
		ID:           p.ID.String(),
		Category:     p.Category,
		CategoryName: models.CategoryName(p.Category),
		Title:        p.Title,
		Price:        p.Price,
		OldPrice:     deref(p.OldPrice),
		Badge:        deref(p.Badge),
		Sale:         deref(p.Sale),
		Image:        image,
		Features:     features,
		MoreFeatures: more,
	}
}

// Grid returns the model of the product grid.
func (v *View) Grid() Grid {
	v.mu.Lock()
	defer v.mu.Unlock()

	grid := Grid{Loading: v.loading, Placeholder: v.placeholder}
	if v.loading {
		return grid
	}
	if len(v.products) == 0 {
		grid.Empty = true
		return grid
	}
	grid.Cards = make([]Card, 0, len(v.products))
	for _, p := range v.products {
		grid.Cards = append(grid.Cards, NewCard(p, v.placeholder))
	}
	return grid
}

// Tabs returns the category tabs with exactly one active. A category outside
// the standard set gets its own tab.
func (v *View) Tabs() []Tab {
	active := v.ActiveCategory()

	tabs := make([]Tab, 0, len(models.CategoryTabs)+1)
	known := false
	for _, key := range models.CategoryTabs {
		if key == active {
			known = true
		}
		tabs = append(tabs, Tab{Key: key, Name: models.CategoryName(key), Active: key == active})
	}
	if !known {
		tabs = append(tabs, Tab{Key: active, Name: models.CategoryName(active), Active: true})
	}
	return tabs
}

func (v *View) RenderGrid() (template.HTML, error) {
	return execute("grid", v.Grid())
}

func (v *View) RenderTabs() (template.HTML, error) {
	return execute("tabs", v.Tabs())
}

func execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
