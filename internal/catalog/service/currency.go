package service

import (
	"regexp"
	"strings"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/utils"
)

// "$ 125.300", "125.300,50", "125300": местный формат записи суммы.
var rxDomesticAmount = regexp.MustCompile(`^\$?\s*(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d{1,2})?$`)

// Полосы правдоподобия (ARS).
const (
	batteryBandMin = 30_000
	batteryBandMax = 1_500_000
	genericBandMin = 1_000
	genericBandMax = 5_000_000
	looseMin       = 100
)

// ValidateCurrency: подсказка «похоже на сумму в песо»; цену не блокирует.
func ValidateCurrency(raw string) model.CurrencyCheck {
	raw = strings.TrimSpace(raw)
	v, ok := utils.ParsePrice(raw)
	if !ok {
		return model.CurrencyCheck{Reason: "not a number"}
	}
	formatted := rxDomesticAmount.MatchString(raw)
	bonus := 0.0
	if formatted {
		bonus = 0.05
	}
	switch {
	case v >= batteryBandMin && v <= batteryBandMax:
		return model.CurrencyCheck{Plausible: true, Confidence: 0.9 + bonus, Reason: "typical battery price band"}
	case v >= genericBandMin && v <= genericBandMax:
		return model.CurrencyCheck{Plausible: true, Confidence: 0.7 + bonus, Reason: "generic ARS price band"}
	case v > looseMin:
		return model.CurrencyCheck{Plausible: true, Confidence: 0.4, Reason: "large positive number"}
	}
	return model.CurrencyCheck{Confidence: 0.1, Reason: "too small for an ARS price"}
}
