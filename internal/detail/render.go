package detail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("detail").ParseFS(templateFS, "templates/*.html"))

// Render returns the modal markup. A closed modal renders the last
// not-found notice or nothing.
func (c *Controller) Render() (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "modal", c.View()); err != nil {
		return "", fmt.Errorf("failed to render product details: %w", err)
	}
	return template.HTML(buf.String()), nil
}
