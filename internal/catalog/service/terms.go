package service

import (
	"regexp"
	"strings"

	"catalog-service/internal/utils"
)

// Термы уже в свёрнутом виде (utils.Fold): без диакритики, нижний регистр.
var (
	headerIndicators = []string{
		"precio", "price", "pvp", "costo", "importe",
		"codigo", "cod.", "sku", "descripcion", "description", "detalle",
		"rubro", "categoria", "category", "familia",
		"marca", "brand", "modelo", "model", "articulo", "producto",
	}

	pricePrimary   = []string{"pvp", "precio de lista", "precio lista", "precio unitario"}
	priceSecondary = []string{"precio", "price"}
	priceTertiary  = []string{"costo", "importe", "valor", "neto"}

	identifierTerms  = []string{"codigo", "sku", "referencia", "part number"}
	identifierTokens = []string{"cod", "id", "ref", "art", "nro"}
	brandTerms       = []string{"marca", "brand", "fabricante"}
	descriptionTerms = []string{"descripcion", "description", "detalle", "producto", "nombre", "articulo"}
	categoryTerms    = []string{"rubro", "categoria", "category", "familia", "tipo", "clase", "linea"}

	// Поля, которые не могут быть ценой, даже если там числа.
	nonPriceFieldTerms = []string{
		"codigo", "cod", "sku", "id", "ean", "barra", "marca", "brand",
		"tipo", "rubro", "categoria", "descripcion", "detalle", "modelo", "model",
	}

	// фразы заметок и заголовков разделов
	noiseTerms = []string{
		"nota", "observacion", "importante", "precios sujetos", "sujeto a",
		"iva incluido", "no incluye iva", "lista de precios", "vigencia", "validez",
		"subtotal", "total", "pagina", "condiciones", "consultar",
	}
)

// Чёрный список колонок: габариты, вес, паллеты, ёмкость/напряжение.
var (
	dimensionTerms  = []string{"pallet", "palet", "weight", "dimension", "medida", "profundidad", "capacidad", "voltaje", "amperaje", "volumen"}
	dimensionTokens = []string{"peso", "alto", "ancho", "largo", "kg", "gr", "mm", "cm", "ah", "v", "cca", "lts", "lt"}
	foreignTerms    = []string{"usd", "u$s", "us$", "u$d", "dolar", "dolares", "uss", "u s d"}

	rxDimensionValue = regexp.MustCompile(`(?i)^\s*\d+(?:[.,]\d+)?\s*(?:v|ah|kg|g|gr|mm|cm|cca|lts?|ml)\s*$|^\s*\d+(?:[.,]\d+)?(?:\s*[x×*]\s*\d+(?:[.,]\d+)?){1,2}\s*(?:mm|cm|m)?\s*$`)
	rxForeignValue   = regexp.MustCompile(`(?i)\b(?:usd|u\$s|us\$|u\$d)\b|^\s*(?:usd|u\$s|us\$)`)
)

func folded(h string) string { return utils.Fold(h) }

func isPriceHeader(h string) int {
	f := folded(h)
	if f == "" || isForeignHeader(h) || isDimensionHeader(h) {
		return 0
	}
	switch {
	case utils.ContainsAny(f, pricePrimary...):
		return 1
	case utils.ContainsAny(f, priceSecondary...):
		return 2
	case utils.ContainsAny(f, priceTertiary...) || utils.HasToken(f, "ars") || strings.Contains(f, "$"):
		return 3
	}
	return 0
}

func isIdentifierHeader(h string) bool {
	f := folded(h)
	return utils.ContainsAny(f, identifierTerms...) || utils.HasToken(f, identifierTokens...)
}

func isBrandHeader(h string) bool       { return utils.ContainsAny(folded(h), brandTerms...) }
func isDescriptionHeader(h string) bool { return utils.ContainsAny(folded(h), descriptionTerms...) }
func isCategoryHeader(h string) bool    { return utils.ContainsAny(folded(h), categoryTerms...) }

func isHeaderIndicator(cell string) bool {
	return utils.ContainsAny(folded(cell), headerIndicators...)
}

func isNonPriceField(h string) bool {
	f := folded(h)
	return utils.HasToken(f, nonPriceFieldTerms...) || utils.ContainsAny(f, "codigo", "descripcion", "categoria")
}

func isDimensionHeader(h string) bool {
	f := folded(h)
	return utils.ContainsAny(f, dimensionTerms...) || utils.HasToken(f, dimensionTokens...)
}

func isForeignHeader(h string) bool {
	f := folded(h)
	return utils.ContainsAny(f, foreignTerms...) || utils.HasToken(f, "us", "dol")
}

// blacklistedContent: большинство непустых образцов похожи на габариты или валюту.
func blacklistedContent(samples []string) (bool, string) {
	n, dim, usd := 0, 0, 0
	for _, s := range samples {
		if strings.TrimSpace(s) == "" {
			continue
		}
		n++
		if rxDimensionValue.MatchString(s) {
			dim++
		}
		if rxForeignValue.MatchString(s) {
			usd++
		}
	}
	if n == 0 {
		return false, ""
	}
	switch {
	case dim*2 > n:
		return true, "dimension/unit values"
	case usd*2 > n:
		return true, "foreign currency values"
	}
	return false, ""
}

// blacklistReason: причина, по которой колонку нельзя использовать ни для одного поля.
func blacklistReason(header string, samples []string) string {
	switch {
	case isForeignHeader(header):
		return "foreign currency column"
	case isDimensionHeader(header):
		return "dimension/unit column"
	}
	if bad, why := blacklistedContent(samples); bad {
		return why
	}
	return ""
}
