package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProductID is the catalog key. The legacy data file stores ids as numbers,
// newer records may carry strings; both decode to the same value.
type ProductID string

func (id ProductID) String() string {
	return string(id)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("invalid product id %s: %w", data, err)
	}
	*id = ProductID(data)
	return nil
}

// MarshalJSON writes numeric ids back as numbers so the data file keeps its shape.
func (id ProductID) MarshalJSON() ([]byte, error) {
	if id.isNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ProductID) isNumeric() bool {
	s := string(id)
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Specifications maps a domain attribute name to a pre-formatted display value.
// Values written as JSON numbers are kept in their textual form.
type Specifications map[string]string

func (s *Specifications) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Specifications, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	*s = out
	return nil
}

// Product is a catalog entry. It is not modified after it has been loaded.
type Product struct {
	ID             ProductID      `json:"id"`
	Category       string         `json:"category"`
	Title          string         `json:"title"`
	Price          string         `json:"price"`
	OldPrice       *string        `json:"oldPrice"`
	Image          string         `json:"image,omitempty"`
	Images         []string       `json:"images,omitempty"`
	Features       []string       `json:"features"`
	Badge          *string        `json:"badge"`
	Sale           *string        `json:"sale"`
	Description    *string        `json:"description,omitempty"`
	Specifications Specifications `json:"specifications,omitempty"`
}

// Normalize guarantees a non-empty image list: images, then the legacy single
// image field, then the placeholder.
func (p *Product) Normalize(placeholder string) {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if strings.TrimSpace(img) != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 && strings.TrimSpace(p.Image) != "" {
		images = append(images, p.Image)
	}
	if len(images) == 0 {
		images = append(images, placeholder)
	}
	p.Images = images
	if p.Features == nil {
		p.Features = []string{}
	}
}

// MainImage returns the first gallery image, or "" when the product was never normalized.
func (p *Product) MainImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.Image
}

// IsDiscounted reports whether the product belongs to the promo listing:
// it has a sale label or its badge mentions a promotion or a discount.
func (p *Product) IsDiscounted() bool {
	if p.Sale != nil && *p.Sale != "" {
		return true
	}
	if p.Badge == nil {
		return false
	}
	badge := strings.ToLower(*p.Badge)
	return strings.Contains(badge, "акция") || strings.Contains(badge, "скидка")
}

// Matches reports whether the lowercase query occurs in the title, the
// description or any feature.
func (p *Product) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if p.Description != nil && strings.Contains(strings.ToLower(*p.Description), q) {
		return true
	}
	for _, f := range p.Features {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// InCategory reports whether the product passes the category filter ("all" passes everything).
func (p *Product) InCategory(category string) bool {
	return category == "" || category == CategoryAll || p.Category == category
}

// FilterByCategory returns the products in the given category, preserving order.
func FilterByCategory(products []Product, category string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.InCategory(category) {
			out = append(out, p)
		}
	}
	return out
}

// ProductResponse wraps a single product in the gateway envelope
type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
}

// ProductListResponse wraps a product list in the gateway envelope
type ProductListResponse struct {
	Success bool      `json:"success"`
	Data    []Product `json:"data"`
	Total   int       `json:"total"`
}
