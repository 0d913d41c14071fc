package detail

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var specLabels = map[string]string{
	"area":             "Площадь",
	"length":           "Длина",
	"width":            "Ширина",
	"height":           "Высота",
	"weight":           "Вес",
	"warranty":         "Гарантия",
	"delivery":         "Доставка",
	"assembly":         "Сборка",
	"insulation":       "Утепление",
	"floor_insulation": "Утепление пола",
	"wall_insulation":  "Утепление стен",
	"frame":            "Каркас",
	"nds_price":        "Цена с НДС",
	"rooms":            "Комнат",
	"bathroom":         "Санузел",
	"ac":               "Кондиционер",
	"furniture":        "Мебель",
}

// specOrder is the display order of known keys; unknown keys follow
// alphabetically.
var specOrder = []string{
	"area", "length", "width", "height", "weight", "rooms", "bathroom", "frame",
	"insulation", "floor_insulation", "wall_insulation", "ac", "furniture",
	"assembly", "delivery", "warranty", "nds_price",
}

type SpecRow struct {
	Key   string
	Label string
	Value string
}

// SpecLabel returns the display label of a specification key.
func SpecLabel(key string) string {
	if label, ok := specLabels[key]; ok {
		return label
	}
	if key == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(key[size:], "_", " ")
}

// SpecRows turns a specification map into labelled rows in a stable order.
func SpecRows(specs map[string]string) []SpecRow {
	if len(specs) == 0 {
		return nil
	}

	rank := make(map[string]int, len(specOrder))
	for i, key := range specOrder {
		rank[key] = i
	}

	keys := make([]string, 0, len(specs))
	for key := range specs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})

	rows := make([]SpecRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, SpecRow{Key: key, Label: SpecLabel(key), Value: specs[key]})
	}
	return rows
}
