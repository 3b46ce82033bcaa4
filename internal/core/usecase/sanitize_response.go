package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"room-listing-service/internal/core/domain"
)

const codeFence = "```"

// StripCodeFence снимает ровно один открывающий (в т.ч. "```json") и один
// закрывающий маркер блока кода. Для чистого текста это тождественная операция.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, codeFence) {
		text = text[len(codeFence):]
		if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
			text = text[4:]
		}
	}
	if strings.HasSuffix(text, codeFence) {
		text = text[:len(text)-len(codeFence)]
	}
	return strings.TrimSpace(text)
}

// SanitizeResponse достаёт одну запись из ответа текстового сервиса.
// Это только синтаксический шаг: типы полей не проверяются.
// Ошибка всегда *domain.ParseFailure с исходным текстом.
func SanitizeResponse(raw string) (map[string]interface{}, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, &domain.ParseFailure{Raw: raw, Err: errors.New("response is empty")}
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, &domain.ParseFailure{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &domain.ParseFailure{Raw: raw, Err: errors.New("unexpected data after JSON value")}
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		// модель иногда оборачивает единственную запись в массив
		if len(v) == 1 {
			if record, ok := v[0].(map[string]interface{}); ok {
				return record, nil
			}
		}
		return nil, &domain.ParseFailure{Raw: raw, Err: fmt.Errorf("expected a single JSON object, got array of %d elements", len(v))}
	default:
		return nil, &domain.ParseFailure{Raw: raw, Err: fmt.Errorf("expected a JSON object, got %s", describeJSON(text))}
	}
}

func describeJSON(text string) string {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}
