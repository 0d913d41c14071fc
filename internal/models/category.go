package models

// Category keys used by the storefront tabs. The set is open: products may
// carry categories that have no tab.
const (
	CategoryAll     = "all"
	CategoryHouses  = "houses"
	CategoryOffices = "offices"
	CategoryStorage = "storage"
	CategoryPromo   = "promo"
)

// CategoryTabs is the tab order on the storefront.
var CategoryTabs = []string{
	CategoryAll,
	CategoryHouses,
	CategoryOffices,
	CategoryStorage,
	CategoryPromo,
}

var categoryNames = map[string]string{
	CategoryAll:     "Все товары",
	CategoryHouses:  "Модульные дома",
	CategoryOffices: "Офисные модули",
	CategoryStorage: "Бытовки",
	CategoryPromo:   "Акции",
}

// CategoryName returns the display label of a category, or the key itself
// when the category is unknown.
func CategoryName(category string) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return category
}

// NormalizeCategory maps an empty filter to "all".
func NormalizeCategory(category string) string {
	if category == "" {
		return CategoryAll
	}
	return category
}
