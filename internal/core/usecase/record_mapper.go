package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"room-listing-service/internal/core/domain"
)

// listingFromRecord переводит проверенную по схеме запись в Listing.
// Цены в разговорной записи нормализуются; то, что разобрать нельзя, становится null
// и попадает в warnings. id не берётся из записи - его назначает пайплайн.
func listingFromRecord(record map[string]interface{}) (domain.Listing, []string) {
	var warnings []string
	l := domain.Listing{
		Title:       stringField(record["title"]),
		Address:     stringField(record["address"]),
		Area:        stringField(record["area"]),
		Description: stringField(record["description"]),
	}

	price := func(field string, parse func(string) (float64, bool)) *float64 {
		v, ok := record[field]
		if !ok || v == nil {
			return nil
		}
		switch t := v.(type) {
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return &f
			}
		case float64:
			return &t
		case string:
			if strings.TrimSpace(t) == "" {
				return nil
			}
			if f, ok := parse(t); ok {
				return &f
			}
		}
		warnings = append(warnings, fmt.Sprintf("%s: cannot parse %v", field, v))
		return nil
	}

	l.Price = price("price", domain.ParseMonthlyPrice)
	l.ElectricPrice = price("electricPrice", domain.ParseUtilityPrice)
	l.WaterPrice = price("waterPrice", domain.ParseUtilityPrice)
	l.ServicePrice = price("servicePrice", domain.ParseUtilityPrice)
	l.ParkingPrice = price("parkingPrice", domain.ParseUtilityPrice)

	if images, ok := record["images"].([]interface{}); ok {
		for _, img := range images {
			ref, ok := img.(string)
			if !ok {
				continue
			}
			if clean, ok := domain.SanitizeImageRef(ref); ok {
				l.Images = append(l.Images, clean)
			} else {
				warnings = append(warnings, fmt.Sprintf("images: dropped %q", ref))
			}
		}
	}
	return l, warnings
}

func stringField(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
