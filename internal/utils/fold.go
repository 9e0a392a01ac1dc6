package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	rxNonWord = regexp.MustCompile(`[^\p{L}\p{N}$%]+`)
	stripper  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Fold: нижний регистр, без диакритики, NBSP -> пробел, пробелы схлопнуты.
// "Código  Artículo" -> "codigo articulo".
func Fold(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	if out, _, err := transform.String(stripper, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FoldKey дополнительно заменяет пунктуацию пробелами; для сравнения заголовков.
func FoldKey(s string) string {
	s = rxNonWord.ReplaceAllString(Fold(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// Tokens: слова заголовка после FoldKey.
func Tokens(s string) []string { return strings.Fields(FoldKey(s)) }

// ContainsAny: подстрочное совпадение хотя бы одного терма (термы уже свёрнуты).
func ContainsAny(folded string, terms ...string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(folded, t) {
			return true
		}
	}
	return false
}

// HasToken: совпадение целым словом.
func HasToken(folded string, terms ...string) bool {
	for _, tok := range strings.Fields(rxNonWord.ReplaceAllString(folded, " ")) {
		for _, t := range terms {
			if tok == t {
				return true
			}
		}
	}
	return false
}
