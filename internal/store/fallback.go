package store

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"catalog-service/internal/models"
)

//go:embed fallback_products.json
var fallbackJSON []byte

var fallbackDataset = mustDecodeFallback(fallbackJSON)

func mustDecodeFallback(data []byte) []models.Product {
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		panic(fmt.Sprintf("store: embedded fallback dataset is invalid: %v", err))
	}
	return products
}

// FallbackProducts returns a copy of the built-in catalog, filtered by
// category ("all" returns everything).
func FallbackProducts(category string) []models.Product {
	return models.FilterByCategory(fallbackDataset, category)
}

// DefaultContacts are shown when the gateway cannot be reached.
var DefaultContacts = models.Contacts{
	Address: "Новосибирск, ул.",
	Phone:   "+7 (923) 226-11-02",
	Email:   "СибМодулинг@gmail.com",
	Schedule: models.Schedule{
		Weekdays: "9:00-20:00",
		Weekends: "10:00-18:00",
	},
}
