package usecase

import (
	"fmt"
	"strings"
)

// ListingFields - поля записи, которые должен вернуть текстовый сервис
var ListingFields = []string{
	"id", "title", "price", "address", "area",
	"electricPrice", "waterPrice", "servicePrice", "parkingPrice",
	"description", "images",
}

// BuildIngestPrompt собирает инструкцию для текстового сервиса:
// схема, правила нормализации единиц, выделенный id и исходный текст.
func BuildIngestPrompt(freeText string, id int64) string {
	var b strings.Builder
	b.WriteString("Convert the following rental room announcement into a single JSON object with the fields: ")
	b.WriteString(strings.Join(ListingFields, ", "))
	b.WriteString(".\n")
	b.WriteString("Rules:\n")
	b.WriteString(`- price is the monthly rent in millions written as a decimal number: "5tr" becomes 5, "5tr5" or "5tr 5" becomes 5.5.` + "\n")
	b.WriteString(`- electricPrice, waterPrice, servicePrice, parkingPrice are absolute amounts: "4k" becomes 4000, "100k" becomes 100000.` + "\n")
	b.WriteString("- images is an array of strings; leave it empty if the text has no image links.\n")
	b.WriteString("- Use null for missing numbers and an empty string for missing text.\n")
	b.WriteString("- Return only the JSON object, without explanations.\n")
	fmt.Fprintf(&b, "id is %d.\n\n", id)
	b.WriteString(strings.TrimSpace(freeText))
	return b.String()
}
