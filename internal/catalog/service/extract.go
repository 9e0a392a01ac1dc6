package service

import (
	"context"
	"strings"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/fallback"
	"catalog-service/internal/utils"
)

type foundPrice struct {
	raw   string
	value float64
	via   string
}

// discoverPrice: колонка цены из маппинга -> любое другое поле в диапазоне
// 1 000..1 000 000 -> строка с запятой, разобранная как десятичная.
func discoverPrice(row model.Row, mapping model.ColumnMapping) (foundPrice, bool) {
	p, _, _, err := fallback.First(context.Background(),
		fallback.Named("mapped", func(context.Context) (foundPrice, error) {
			raw := mapping.Value(row, model.FieldPrice)
			if v, ok := utils.ParsePrice(raw); ok {
				return foundPrice{raw: raw, value: v, via: "mapped"}, nil
			}
			return foundPrice{}, fallback.ErrNoResult
		}),
		fallback.Named("range", func(context.Context) (foundPrice, error) {
			return scanRow(row, mapping.Price, "range", utils.ParsePrice)
		}),
		fallback.Named("comma", func(context.Context) (foundPrice, error) {
			return scanRow(row, mapping.Price, "comma", func(v string) (float64, bool) {
				if !strings.Contains(v, ",") {
					return 0, false
				}
				return utils.ParseDecimalComma(v)
			})
		}),
	)
	return p, err == nil
}

func scanRow(row model.Row, skip, via string, parse func(string) (float64, bool)) (foundPrice, error) {
	var (
		found foundPrice
		ok    bool
	)
	row.Each(func(k, v string) bool {
		if k == skip || v == "" || isNonPriceField(k) || isForeignHeader(k) || isDimensionHeader(k) || utils.IsCodeToken(v) {
			return true
		}
		if f, parsed := parse(v); parsed && utils.InPlausibleRange(f) {
			found, ok = foundPrice{raw: v, value: f, via: via}, true
			return false
		}
		return true
	})
	if !ok {
		return foundPrice{}, fallback.ErrNoResult
	}
	return found, nil
}

// extract собирает PriceInput из строки по маппингу. vendor (если задан) заменяет марку.
func extract(row model.Row, mapping model.ColumnMapping, vendor string) PriceInput {
	in := PriceInput{
		Sheet:       row.Sheet,
		RowNumber:   row.Number,
		Type:        mapping.Value(row, model.FieldType),
		Model:       firstNonEmpty(mapping.Value(row, model.FieldModel), mapping.Value(row, model.FieldIdentifier)),
		Description: mapping.Value(row, model.FieldDescription),
		Brand:       mapping.Value(row, model.FieldBrand),
	}
	if v := strings.TrimSpace(vendor); v != "" {
		in.Brand = v
	}
	if p, ok := discoverPrice(row, mapping); ok {
		in.PriceRaw, in.PriceBase = p.raw, p.value
	} else {
		in.PriceRaw = mapping.Value(row, model.FieldPrice)
	}
	return in
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
