package services

// Display labels for category keys by locale. Keys missing from a locale
// fall back to English, then to the raw key, so an unknown sub-category
// from the extraction pipeline still renders.
var categoryLabels = map[string]map[string]string{
	"en": {
		"food":           "Food",
		"service":        "Service",
		"ambience":       "Ambience",
		"value":          "Value",
		"wait_time":      "Wait Time",
		"cleanliness":    "Cleanliness",
		"staff_attitude": "Staff Attitude",
		"portion_size":   "Portion Size",
		"noise_level":    "Noise Level",
		"drink_quality":  "Drink Quality",
		"menu_variety":   "Menu Variety",
		"pricing":        "Pricing",
	},
	"es": {
		"food":           "Comida",
		"service":        "Servicio",
		"ambience":       "Ambiente",
		"value":          "Valor",
		"wait_time":      "Tiempo de Espera",
		"cleanliness":    "Limpieza",
		"staff_attitude": "Actitud del Personal",
		"portion_size":   "Tamaño de Porción",
		"noise_level":    "Nivel de Ruido",
		"drink_quality":  "Calidad de Bebidas",
		"menu_variety":   "Variedad del Menú",
		"pricing":        "Precios",
	},
}

// DefaultLocale is used when a request carries no locale.
const DefaultLocale = "en"

// NormalizeLocale maps unknown locales to the default.
func NormalizeLocale(locale string) string {
	if _, ok := categoryLabels[locale]; !ok {
		return DefaultLocale
	}
	return locale
}

func categoryLabel(key, locale string) string {
	if label, ok := categoryLabels[locale][key]; ok {
		return label
	}
	if label, ok := categoryLabels[DefaultLocale][key]; ok {
		return label
	}
	return key
}
