package service

import (
	"fmt"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/utils"
)

// Жёсткие правила по заголовкам: перекрывают любой ответ ассистента.
var (
	forcedPrice = []string{"pvp off line", "precio de lista", "precio unitario"}
	forcedRules = []struct {
		term   string
		fields []model.Field
	}{
		{"codigo", []model.Field{model.FieldIdentifier, model.FieldModel}},
		{"rubro", []model.Field{model.FieldType}},
		{"marca", []model.Field{model.FieldBrand}},
		{"descripcion", []model.Field{model.FieldDescription}},
	}
)

// Списки термов эвристического маппера; цена: в порядке приоритета.
var (
	heurType        = []string{"tipo", "categoria", "familia", "clase", "rubro"}
	heurModel       = []string{"modelo", "model", "codigo", "sku"}
	heurModelTok    = []string{"id", "cod"}
	heurIdentifier  = []string{"codigo", "sku", "referencia"}
	heurIdentTok    = []string{"id", "cod", "ref", "art"}
	heurBrand       = []string{"marca", "brand", "fabricante"}
	heurDescription = []string{"descripcion", "description", "detalle", "producto", "nombre", "articulo"}
	heurPrice       = []string{"pvp off line", "pvp", "precio de lista", "precio unitario", "precio", "price", "importe", "costo", "valor"}
)

const (
	confForced   = 1.0
	confByName   = 0.8
	confBySample = 0.5
)

// applyForced применяет жёсткие правила. Возвращает поля, которые были изменены.
func applyForced(m *model.ColumnMapping, s samples) []model.Field {
	var changed []model.Field
	set := func(f model.Field, col, rule string) {
		if m.FieldConfidence == nil {
			m.FieldConfidence = map[model.Field]float64{}
		}
		if m.Evidence == nil {
			m.Evidence = map[model.Field]model.Evidence{}
		}
		if prev := m.Column(f); prev != col {
			changed = append(changed, f)
			if prev != "" {
				m.Note(fmt.Sprintf("%s: forced %q over %q", f, col, prev))
			}
		}
		m.SetColumn(f, col)
		m.FieldConfidence[f] = confForced
		m.Evidence[f] = evidenceFor(col, s, "header rule: "+rule)
		m.Forced = append(m.Forced, f)
	}

	for _, term := range forcedPrice {
		if col := firstHeader(s, func(h string) bool { return utils.ContainsAny(utils.Fold(h), term) }); col != "" {
			set(model.FieldPrice, col, term)
			break
		}
	}
	for _, rule := range forcedRules {
		term := rule.term
		col := firstHeader(s, func(h string) bool { return utils.ContainsAny(utils.Fold(h), term) })
		if col == "" {
			continue
		}
		for _, f := range rule.fields {
			set(f, col, term)
		}
	}
	return changed
}

// firstHeader: первый заголовок, прошедший pred и не попавший в чёрный список.
func firstHeader(s samples, pred func(h string) bool) string {
	for _, h := range s.headers {
		if pred(h) && s.blacklisted(h) == "" {
			return h
		}
	}
	return ""
}

// heuristicMapping: маппинг по ключевым словам, без ассистента.
func heuristicMapping(s samples) model.ColumnMapping {
	m := model.ColumnMapping{
		Source:          model.SourceHeuristic,
		FieldConfidence: map[model.Field]float64{},
		Evidence:        map[model.Field]model.Evidence{},
	}
	byName := func(f model.Field, terms, tokens []string) {
		col := firstHeader(s, func(h string) bool {
			k := utils.Fold(h)
			return utils.ContainsAny(k, terms...) || utils.HasToken(k, tokens...)
		})
		if col == "" {
			return
		}
		m.SetColumn(f, col)
		m.FieldConfidence[f] = confByName
		m.Evidence[f] = evidenceFor(col, s, "header keyword")
	}
	byName(model.FieldType, heurType, nil)
	byName(model.FieldModel, heurModel, heurModelTok)
	byName(model.FieldIdentifier, heurIdentifier, heurIdentTok)
	byName(model.FieldBrand, heurBrand, nil)
	byName(model.FieldDescription, heurDescription, nil)

	for _, term := range heurPrice {
		col := firstHeader(s, func(h string) bool {
			return utils.ContainsAny(utils.Fold(h), term) && h != m.Identifier && h != m.Model
		})
		if col != "" {
			m.Price = col
			m.FieldConfidence[model.FieldPrice] = confByName
			m.Evidence[model.FieldPrice] = evidenceFor(col, s, "price keyword "+term)
			break
		}
	}
	if m.Price == "" {
		if col := priceBySamples(s); col != "" {
			m.Price = col
			m.FieldConfidence[model.FieldPrice] = confBySample
			m.Evidence[model.FieldPrice] = evidenceFor(col, s, "values in plausible price range")
		}
	}

	m.Confidence = heuristicConfidence(m)
	return m
}

// priceBySamples: колонка с наибольшим числом значений в диапазоне 1 000..1 000 000,
// кроме кодов и колонок с "неценовыми" именами.
func priceBySamples(s samples) string {
	best, bestHits := "", 0
	for _, h := range s.headers {
		if isNonPriceField(h) || s.blacklisted(h) != "" {
			continue
		}
		hits := 0
		for _, v := range s.nonEmpty(h, 0) {
			if utils.IsCodeToken(v) {
				continue
			}
			if f, ok := utils.ParsePrice(v); ok && utils.InPlausibleRange(f) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = h, hits
		}
	}
	return best
}

// порядок суммирования фиксирован
var heuristicWeights = []struct {
	field  model.Field
	weight float64
}{
	{model.FieldPrice, 0.4},
	{model.FieldModel, 0.2},
	{model.FieldDescription, 0.2},
	{model.FieldBrand, 0.1},
	{model.FieldType, 0.1},
}

func heuristicConfidence(m model.ColumnMapping) float64 {
	total := 0.0
	for _, hw := range heuristicWeights {
		f := hw.field
		col := m.Column(f)
		if f == model.FieldModel && col == "" {
			f, col = model.FieldIdentifier, m.Identifier
		}
		if col != "" {
			total += hw.weight * m.FieldConfidence[f]
		}
	}
	return total
}
