package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	rxCodeToken  = regexp.MustCompile(`^[A-Za-z]\d+$`)
	rxKeepNums   = regexp.MustCompile(`[^\d.,]`)
	rxThousandsD = regexp.MustCompile(`\.\d{3}(?:\D|$)`)
)

// Диапазон, в котором значение вообще похоже на цену в ARS.
const (
	PlausibleMin = 1_000
	PlausibleMax = 1_000_000
)

// ParsePrice парсит "$ 2.690", "1.256,33", "12500" и т.п.
// Возвращает false для кодов вида "A123" и для неположительных значений.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || rxCodeToken.MatchString(s) {
		return 0, false
	}
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	// "2.690": точка как разделитель тысяч
	if rxThousandsD.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return accept(f)
	}
	return ParseDecimalComma(s)
}

// ParseDecimalComma: убрать все точки, запятую считать десятичной.
func ParseDecimalComma(s string) (float64, bool) {
	s = rxKeepNums.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if strings.Contains(s, ",") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return accept(f)
}

func accept(f float64) (float64, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InPlausibleRange: 1 000..1 000 000 включительно.
func InPlausibleRange(f float64) bool { return f >= PlausibleMin && f <= PlausibleMax }

// IsCodeToken: "A123", а также короткие токены из заглавных букв и цифр без пробелов.
func IsCodeToken(raw string) bool {
	s := strings.TrimSpace(raw)
	if rxCodeToken.MatchString(s) {
		return true
	}
	return rxUpperCode.MatchString(s) && strings.IndexFunc(s, isLetter) >= 0
}

var rxUpperCode = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-_/]{1,14}$`)

func isLetter(r rune) bool { return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') }
