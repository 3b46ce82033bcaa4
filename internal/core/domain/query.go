package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dStroke = strings.NewReplacer("đ", "d", "Đ", "d")

// Normalize приводит строку к виду для поиска: нижний регистр, без диакритики,
// "đ" → "d", без пробелов по краям.
func Normalize(s string) string {
	// transform.Chain хранит состояние, поэтому создаётся на каждый вызов
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.TrimSpace(dStroke.Replace(folded))
}

// Search возвращает объявления, у которых title, address или description
// содержит запрос без учёта регистра и диакритики.
func Search(listings []Listing, query string) []Listing {
	needle := Normalize(query)
	result := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(Normalize(l.Title), needle) ||
			strings.Contains(Normalize(l.Address), needle) ||
			strings.Contains(Normalize(l.Description), needle) {
			result = append(result, l)
		}
	}
	return result
}

// PriceBucket - диапазон цены в миллионах в месяц
type PriceBucket string

const (
	PriceUnder3   PriceBucket = "under-3"
	Price3To5     PriceBucket = "3-5"
	Price5To10    PriceBucket = "5-10"
	PriceOver10   PriceBucket = "over-10"
	PriceAnyPrice PriceBucket = ""
)

// InBucket: неизвестный или пустой диапазон пропускает всё,
// объявление без цены не попадает ни в один известный диапазон.
func (b PriceBucket) InBucket(price *float64) bool {
	switch b {
	case PriceUnder3, Price3To5, Price5To10, PriceOver10:
	default:
		return true
	}
	if price == nil {
		return false
	}
	p := *price
	switch b {
	case PriceUnder3:
		return p < 3
	case Price3To5:
		return p >= 3 && p <= 5
	case Price5To10:
		return p > 5 && p <= 10
	default:
		return p > 10
	}
}

func FilterByPrice(listings []Listing, bucket PriceBucket) []Listing {
	result := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if bucket.InBucket(l.Price) {
			result = append(result, l)
		}
	}
	return result
}

// AreaKeywords - код района → ключевые слова в адресе.
type AreaKeywords map[string][]string

func DefaultAreaKeywords() AreaKeywords {
	return AreaKeywords{
		"binh-thanh": {"binh thanh"},
		"go-vap":     {"go vap"},
		"tan-binh":   {"tan binh"},
		"phu-nhuan":  {"phu nhuan"},
	}
}

// Matches проверяет адрес на любое ключевое слово района.
// Неизвестный код района всегда даёт false.
func (a AreaKeywords) Matches(address, areaCode string) bool {
	keywords, ok := a[areaCode]
	if !ok {
		return false
	}
	normalizedAddress := Normalize(address)
	for _, kw := range keywords {
		if n := Normalize(kw); n != "" && strings.Contains(normalizedAddress, n) {
			return true
		}
	}
	return false
}

// MatchesArea использует встроенную карту районов.
func MatchesArea(address, areaCode string) bool {
	return DefaultAreaKeywords().Matches(address, areaCode)
}

// RoomFilter - набор фильтров каталога; пустые поля не фильтруют.
type RoomFilter struct {
	Query    string
	Price    PriceBucket
	AreaCode string
}

func (f RoomFilter) Apply(listings []Listing, areas AreaKeywords) []Listing {
	result := listings
	if strings.TrimSpace(f.Query) != "" {
		result = Search(result, f.Query)
	}
	if f.Price != PriceAnyPrice {
		result = FilterByPrice(result, f.Price)
	}
	if f.AreaCode != "" {
		if areas == nil {
			areas = DefaultAreaKeywords()
		}
		filtered := make([]Listing, 0, len(result))
		for _, l := range result {
			if areas.Matches(l.Address, f.AreaCode) {
				filtered = append(filtered, l)
			}
		}
		result = filtered
	}
	return result
}
