package consultation

import (
	"strings"
	"sync"

	"catalog-service/internal/models"
)

type Option struct {
	Value    string
	Title    string
	Selected bool
}

// Form is the server-side state of one visitor's consultation form.
type Form struct {
	mu    sync.Mutex
	value string
	title string
	extra []Option
}

func NewForm() *Form {
	return &Form{}
}

// SetProduct selects a product option, adding it when the list lacks it.
func (f *Form) SetProduct(value, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
	f.title = title
	for _, opt := range f.extra {
		if opt.Value == value {
			return
		}
	}
	f.extra = append(f.extra, Option{Value: value, Title: title})
}

func (f *Form) Selected() (value, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.title
}

// Options lists one option per product plus any offered product missing from
// the list, with the current selection marked.
func (f *Form) Options(products []models.Product) []Option {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]bool, len(products))
	opts := make([]Option, 0, len(products)+len(f.extra))
	for _, p := range products {
		value := OptionValue(p.ID)
		seen[value] = true
		opts = append(opts, Option{Value: value, Title: p.Title, Selected: value == f.value})
	}
	for _, opt := range f.extra {
		if seen[opt.Value] {
			continue
		}
		opt.Selected = opt.Value == f.value
		opts = append(opts, opt)
	}
	return opts
}

// ProductTitle resolves a submitted option value to the product title.
// Free text is returned unchanged.
func (f *Form) ProductTitle(value string, products []models.Product) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, p := range products {
		if OptionValue(p.ID) == value {
			return p.Title
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range f.extra {
		if opt.Value == value {
			return opt.Title
		}
	}
	return value
}

// Reset clears the selection after a successful submission.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = ""
	f.title = ""
}
