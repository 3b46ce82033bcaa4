package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ListingID - идентификатор объявления.
// Повреждённые значения (null, строка) не считаются валидными, но сохраняются
// как есть, чтобы перезапись документа их не теряла.
type ListingID struct {
	value int64
	valid bool
	raw   json.RawMessage
}

// NewListingID создает валидный идентификатор.
func NewListingID(v int64) ListingID {
	return ListingID{value: v, valid: true}
}

// Int64 возвращает числовое значение и признак валидности.
func (id ListingID) Int64() (int64, bool) {
	return id.value, id.valid
}

func (id ListingID) IsValid() bool { return id.valid }

func (id ListingID) Equal(other ListingID) bool {
	if id.valid || other.valid {
		return id.valid == other.valid && id.value == other.value
	}
	return bytes.Equal(id.raw, other.raw)
}

func (id ListingID) String() string {
	if id.valid {
		return strconv.FormatInt(id.value, 10)
	}
	if len(id.raw) > 0 {
		return string(id.raw)
	}
	return "unknown"
}

func (id ListingID) MarshalJSON() ([]byte, error) {
	if len(id.raw) > 0 {
		return id.raw, nil
	}
	if !id.valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, id.value, 10), nil
}

// UnmarshalJSON никогда не возвращает ошибку: любое нечисловое значение
// просто помечается как невалидное.
func (id *ListingID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*id = ListingID{raw: append(json.RawMessage(nil), trimmed...)}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	num, ok := v.(json.Number)
	if !ok {
		return nil
	}
	if n, err := num.Int64(); err == nil {
		id.value, id.valid = n, true
		return nil
	}
	if f, err := num.Float64(); err == nil {
		// дробный id: округляем вниз, чтобы max+1 всё равно был строго больше
		id.value, id.valid = int64(f), true
		if f < 0 && float64(id.value) != f {
			id.value--
		}
	}
	return nil
}

// Listing - одно объявление о сдаче комнаты.
// Price хранится в миллионах в месяц, коммунальные платежи - в абсолютных единицах валюты.
type Listing struct {
	ID            ListingID `json:"id"`
	Title         string    `json:"title"`
	Price         *float64  `json:"price"`
	Address       string    `json:"address"`
	Area          string    `json:"area,omitempty"`
	ElectricPrice *float64  `json:"electricPrice"`
	WaterPrice    *float64  `json:"waterPrice"`
	ServicePrice  *float64  `json:"servicePrice"`
	ParkingPrice  *float64  `json:"parkingPrice"`
	Description   string    `json:"description"`
	// Images: порядок = порядок показа, первый элемент - обложка
	Images []string `json:"images,omitempty"`

	// loose - исходные значения полей, пришедших не в своём типе ("", "5tr5").
	// Пока поле не изменено, при записи возвращается исходное значение.
	loose map[string]looseField
}

// CoverImage возвращает обложку или пустую строку, если картинок нет.
func (l Listing) CoverImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// ListingsDocument - содержимое Durable Store.
type ListingsDocument struct {
	Rooms []Listing `json:"rooms"`
}

// InlineImagePrefix - признак встроенной картинки (data URI), а не файла.
const InlineImagePrefix = "data:"

func IsInlineImage(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), InlineImagePrefix)
}

// CloneListings делает глубокую копию среза, чтобы вызывающий код
// не мог изменить внутреннее состояние через общий backing array.
func CloneListings(src []Listing) []Listing {
	if src == nil {
		return nil
	}
	out := make([]Listing, len(src))
	for i, l := range src {
		out[i] = l.Clone()
	}
	return out
}

func (l Listing) Clone() Listing {
	c := l
	if l.Images != nil {
		c.Images = append([]string(nil), l.Images...)
	}
	if l.ID.raw != nil {
		c.ID.raw = append(json.RawMessage(nil), l.ID.raw...)
	}
	if l.loose != nil {
		c.loose = make(map[string]looseField, len(l.loose))
		for k, v := range l.loose {
			c.loose[k] = v.clone()
		}
	}
	c.Price = clonePtr(l.Price)
	c.ElectricPrice = clonePtr(l.ElectricPrice)
	c.WaterPrice = clonePtr(l.WaterPrice)
	c.ServicePrice = clonePtr(l.ServicePrice)
	c.ParkingPrice = clonePtr(l.ParkingPrice)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
