package domain

import (
	"bytes"
	"encoding/json"
)

// listingFields - Listing без методов, чтобы (Un)MarshalJSON не вызывали сами себя.
type listingFields Listing

// listingWire перекрывает поля, которые в старых документах встречаются
// в чужом типе: цены строками ("", "5tr5"), images строкой.
type listingWire struct {
	listingFields
	Price         json.RawMessage `json:"price"`
	ElectricPrice json.RawMessage `json:"electricPrice"`
	WaterPrice    json.RawMessage `json:"waterPrice"`
	ServicePrice  json.RawMessage `json:"servicePrice"`
	ParkingPrice  json.RawMessage `json:"parkingPrice"`
	Images        json.RawMessage `json:"images,omitempty"`
}

type looseField struct {
	raw    json.RawMessage
	amount *float64
	images []string
}

func (f looseField) clone() looseField {
	return looseField{
		raw:    append(json.RawMessage(nil), f.raw...),
		amount: clonePtr(f.amount),
		images: append([]string(nil), f.images...),
	}
}

var jsonNull = []byte("null")

// UnmarshalJSON не падает на полях в чужом типе: цена-строка разбирается
// как разговорная запись или становится null, images не-массив считается пустым.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var w listingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = Listing(w.listingFields)
	l.loose = nil

	l.Price = l.decodeAmount("price", w.Price, ParseMonthlyPrice)
	l.ElectricPrice = l.decodeAmount("electricPrice", w.ElectricPrice, ParseUtilityPrice)
	l.WaterPrice = l.decodeAmount("waterPrice", w.WaterPrice, ParseUtilityPrice)
	l.ServicePrice = l.decodeAmount("servicePrice", w.ServicePrice, ParseUtilityPrice)
	l.ParkingPrice = l.decodeAmount("parkingPrice", w.ParkingPrice, ParseUtilityPrice)
	l.Images = l.decodeImages(w.Images)
	return nil
}

func (l Listing) MarshalJSON() ([]byte, error) {
	w := listingWire{listingFields: listingFields(l)}
	var err error
	amounts := []struct {
		field string
		value *float64
		dst   *json.RawMessage
	}{
		{"price", l.Price, &w.Price},
		{"electricPrice", l.ElectricPrice, &w.ElectricPrice},
		{"waterPrice", l.WaterPrice, &w.WaterPrice},
		{"servicePrice", l.ServicePrice, &w.ServicePrice},
		{"parkingPrice", l.ParkingPrice, &w.ParkingPrice},
	}
	for _, a := range amounts {
		if *a.dst, err = l.encodeAmount(a.field, a.value); err != nil {
			return nil, err
		}
	}
	if w.Images, err = l.encodeImages(); err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (l *Listing) keepLoose(field string, raw json.RawMessage, f looseField) {
	if l.loose == nil {
		l.loose = make(map[string]looseField)
	}
	f.raw = append(json.RawMessage(nil), raw...)
	l.loose[field] = f
}

func (l *Listing) decodeAmount(field string, raw json.RawMessage, parse func(string) (float64, bool)) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num
	}

	var value *float64
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, ok := parse(text); ok {
			value = &v
		}
	}
	l.keepLoose(field, raw, looseField{amount: clonePtr(value)})
	return value
}

func (l *Listing) decodeImages(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}
	var refs []string
	if err := json.Unmarshal(raw, &refs); err == nil {
		return refs
	}

	// массив со смешанными элементами: берём только строки
	var kept []string
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err == nil {
		for _, item := range items {
			if ref, ok := item.(string); ok {
				kept = append(kept, ref)
			}
		}
	}
	l.keepLoose("images", raw, looseField{images: append([]string(nil), kept...)})
	return kept
}

func (l Listing) encodeAmount(field string, value *float64) (json.RawMessage, error) {
	if f, ok := l.loose[field]; ok && equalAmounts(f.amount, value) {
		return f.raw, nil
	}
	if value == nil {
		return nil, nil
	}
	return json.Marshal(*value)
}

func (l Listing) encodeImages() (json.RawMessage, error) {
	if f, ok := l.loose["images"]; ok && equalStrings(f.images, l.Images) {
		return f.raw, nil
	}
	if len(l.Images) == 0 {
		return nil, nil
	}
	return json.Marshal(l.Images)
}

func equalAmounts(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
