package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Разговорная запись цен: "5tr5" = 5.5 млн, "4k" = 4000.
var (
	shorthandPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)(k|tr|m)?(\d*)$`)
	// 3.500.000 / 3,500,000 - разделители тысяч, а не дробная часть
	thousandsGrouped = regexp.MustCompile(`^\d{1,3}(?:([.,])\d{3})(?:[.,]\d{3})*$`)

	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

var unitAliases = strings.NewReplacer(
	"trieu", "tr",
	"nghin", "k",
	"ngan", "k",
	"vnd", "",
	"dong", "",
)

type priceScale int

const (
	scaleMillions priceScale = iota
	scaleAbsolute
)

// ParseMonthlyPrice разбирает аренду в миллионах в месяц: "5tr5" → 5.5, "3.5" → 3.5,
// "3500k" → 3.5, "3.500.000" → 3.5. Второй результат false, если строку разобрать нельзя.
func ParseMonthlyPrice(s string) (float64, bool) {
	return parseShorthand(s, scaleMillions)
}

// ParseUtilityPrice разбирает коммунальный платёж в абсолютных единицах: "4k" → 4000,
// "3.5k" → 3500, "1tr2" → 1200000, "miễn phí" → 0.
func ParseUtilityPrice(s string) (float64, bool) {
	return parseShorthand(s, scaleAbsolute)
}

func parseShorthand(s string, scale priceScale) (float64, bool) {
	cleaned := cleanPriceText(s)
	if cleaned == "" {
		return 0, false
	}
	if cleaned == "free" || cleaned == "mienphi" {
		return 0, true
	}

	m := shorthandPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, false
	}
	numText, unit, tail := m[1], m[2], m[3]
	if tail != "" && unit == "" {
		return 0, false
	}

	value, ok := parseNumber(numText, scale == scaleAbsolute)
	if !ok {
		return 0, false
	}
	if tail != "" {
		// "5tr5": хвост после единицы - дробная часть этой единицы
		frac, err := decimal.NewFromString("0." + tail)
		if err != nil {
			return 0, false
		}
		value = value.Add(frac)
	}

	switch scale {
	case scaleMillions:
		switch unit {
		case "tr", "m":
		case "k":
			value = value.Mul(thousand).Div(million)
		default:
			// голое большое число - это сумма в валюте, а не в миллионах
			if value.GreaterThanOrEqual(thousand) {
				value = value.Div(million)
			}
		}
	case scaleAbsolute:
		switch unit {
		case "k":
			value = value.Mul(thousand)
		case "tr", "m":
			value = value.Mul(million)
		}
	}
	return value.InexactFloat64(), true
}

func parseNumber(text string, allowSingleGroup bool) (decimal.Decimal, bool) {
	if groups := thousandsGrouped.FindStringSubmatch(text); groups != nil {
		multiGroup := strings.Count(text, groups[1]) > 1
		if allowSingleGroup || multiGroup {
			text = strings.NewReplacer(".", "", ",", "").Replace(text)
		}
	}
	if strings.Count(text, ",")+strings.Count(text, ".") > 1 {
		return decimal.Decimal{}, false
	}
	text = strings.Replace(text, ",", ".", 1)
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// cleanPriceText приводит строку к виду "5tr5": без диакритики, пробелов,
// знаков валюты и суффиксов вида "/tháng".
func cleanPriceText(s string) string {
	text := Normalize(s)
	if i := strings.Index(text, "/"); i >= 0 {
		text = text[:i]
	}
	text = strings.Join(strings.Fields(text), "")
	text = unitAliases.Replace(text)
	text = strings.TrimSuffix(text, "d")
	return text
}
