package service

import (
	"fmt"
	"strings"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/utils"
)

const (
	sampleRowsLimit  = 10
	minConfidence    = 0.7
	repairedCeiling  = 0.6
	minPriceCoverage = 0.8
	minPriceMax      = 100_000
)

// samples: до 10 строк выборки, значения по заголовку.
type samples struct {
	headers []string
	byCol   map[string][]string
}

func takeSamples(headers []string, rows []model.Row) samples {
	s := samples{headers: headers, byCol: make(map[string][]string, len(headers))}
	for i := 0; i < len(rows) && i < sampleRowsLimit; i++ {
		for _, h := range headers {
			s.byCol[h] = append(s.byCol[h], rows[i].Get(h))
		}
	}
	return s
}

func (s samples) has(col string) bool {
	for _, h := range s.headers {
		if h == col {
			return true
		}
	}
	return false
}

// resolveHeader: точное имя колонки по свёрнутому совпадению.
func (s samples) resolveHeader(name string) (string, bool) {
	if s.has(name) {
		return name, true
	}
	key := utils.FoldKey(name)
	if key == "" {
		return "", false
	}
	for _, h := range s.headers {
		if utils.FoldKey(h) == key {
			return h, true
		}
	}
	return "", false
}

// nonEmpty: непустые образцы колонки, не больше limit (0 = все).
func (s samples) nonEmpty(col string, limit int) []string {
	var out []string
	for _, v := range s.byCol[col] {
		if v == "" {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// priceStats: доля распарсенных среди непустых и максимум.
func (s samples) priceStats(col string) (coverage, maxVal float64) {
	vals := s.nonEmpty(col, 0)
	if len(vals) == 0 {
		return 0, 0
	}
	ok := 0
	for _, v := range vals {
		if f, parsed := utils.ParsePrice(v); parsed {
			ok++
			if f > maxVal {
				maxVal = f
			}
		}
	}
	return float64(ok) / float64(len(vals)), maxVal
}

func (s samples) blacklisted(col string) string {
	return blacklistReason(col, s.nonEmpty(col, 0))
}

// validateMapping: пост-проверка; пустой список = маппинг принят.
func validateMapping(m model.ColumnMapping, s samples) []string {
	var v []string
	if m.Confidence < minConfidence {
		v = append(v, fmt.Sprintf("overall confidence %.2f is below %.2f", m.Confidence, minConfidence))
	}
	for _, f := range model.Fields {
		col := m.Column(f)
		if col == "" {
			continue
		}
		if !s.has(col) {
			v = append(v, fmt.Sprintf("field %s references %q which is not a column name", f, col))
			continue
		}
		if why := s.blacklisted(col); why != "" {
			v = append(v, fmt.Sprintf("field %s uses blacklisted column %q (%s)", f, col, why))
		}
	}
	if m.Price == "" {
		v = append(v, "no ARS price column selected")
	} else if s.has(m.Price) {
		cov, maxVal := s.priceStats(m.Price)
		if cov < minPriceCoverage {
			v = append(v, fmt.Sprintf("price column %q numeric coverage %.2f is below %.2f", m.Price, cov, minPriceCoverage))
		}
		if maxVal < minPriceMax {
			v = append(v, fmt.Sprintf("price column %q sampled maximum %.0f is below %d, not a plausible ARS price", m.Price, maxVal, minPriceMax))
		}
	}
	return v
}

// dropBlacklisted гарантирует инвариант: ни одно поле не ссылается на колонку из чёрного списка.
func dropBlacklisted(m *model.ColumnMapping, s samples) {
	for _, f := range model.Fields {
		col := m.Column(f)
		if col == "" {
			continue
		}
		if why := s.blacklisted(col); why != "" {
			m.SetColumn(f, "")
			m.Note(fmt.Sprintf("%s: dropped %q (%s)", f, col, why))
		}
	}
}

func evidenceFor(col string, s samples, rationale string) model.Evidence {
	return model.Evidence{Column: col, Samples: s.nonEmpty(col, 5), Rationale: rationale}
}

func fieldList(fs []model.Field) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
