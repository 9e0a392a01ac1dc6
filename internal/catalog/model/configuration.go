package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"catalog-service/internal/utils"
)

type ChannelRates struct {
	Retail    float64 `json:"minorista"`
	Wholesale float64 `json:"mayorista"`
}

// Configuration: снимок на время одного прогона, только чтение.
type Configuration struct {
	VAT             float64            `json:"iva"`
	Markups         ChannelRates       `json:"markups"`
	Commissions     ChannelRates       `json:"comisiones"`
	Discount        float64            `json:"descuento_proveedor"`
	VendorDiscounts map[string]float64 `json:"descuentos_por_proveedor,omitempty"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		VAT:     21,
		Markups: ChannelRates{Retail: 60, Wholesale: 22},
	}
}

// DiscountFor: скидка конкретного поставщика, иначе глобальная.
// Ключи сравниваются после Fold; Merge не допускает коллизий.
func (c Configuration) DiscountFor(vendor string) float64 {
	if key := utils.Fold(vendor); key != "" {
		for _, k := range slices.Sorted(maps.Keys(c.VendorDiscounts)) {
			if utils.Fold(k) == key {
				return c.VendorDiscounts[k]
			}
		}
	}
	return c.Discount
}

// ConfigDocument: частичный JSON-документ; отсутствующие поля берутся из defaults.
type ConfigDocument struct {
	VAT             *float64           `json:"iva"`
	Markups         *partialRates      `json:"markups"`
	Commissions     *partialRates      `json:"comisiones"`
	Discount        *float64           `json:"descuento_proveedor"`
	VendorDiscounts map[string]float64 `json:"descuentos_por_proveedor"`
}

type partialRates struct {
	Retail    *float64 `json:"minorista"`
	Wholesale *float64 `json:"mayorista"`
}

// Merge накладывает документ на base. Два поставщика, совпадающие после Fold
// ("Moura" и "MOURA "), считаются ошибкой документа.
func (d ConfigDocument) Merge(base Configuration) (Configuration, error) {
	out := base
	if d.VAT != nil {
		out.VAT = *d.VAT
	}
	if d.Discount != nil {
		out.Discount = *d.Discount
	}
	out.Markups = d.Markups.merge(base.Markups)
	out.Commissions = d.Commissions.merge(base.Commissions)
	if len(d.VendorDiscounts) > 0 {
		out.VendorDiscounts = make(map[string]float64, len(d.VendorDiscounts))
		seen := make(map[string]string, len(d.VendorDiscounts))
		for _, k := range slices.Sorted(maps.Keys(d.VendorDiscounts)) {
			name := strings.TrimSpace(k)
			if name == "" {
				continue
			}
			key := utils.Fold(name)
			if prev, dup := seen[key]; dup {
				return Configuration{}, fmt.Errorf("vendor %q duplicates %q", name, prev)
			}
			seen[key] = name
			out.VendorDiscounts[name] = d.VendorDiscounts[k]
		}
	}
	return out, nil
}

func (p *partialRates) merge(base ChannelRates) ChannelRates {
	if p == nil {
		return base
	}
	if p.Retail != nil {
		base.Retail = *p.Retail
	}
	if p.Wholesale != nil {
		base.Wholesale = *p.Wholesale
	}
	return base
}
