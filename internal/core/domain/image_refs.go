package domain

import (
	"path"
	"strings"
)

// SanitizeImageRef пропускает только data URI и относительные пути внутри каталога.
// Внешние ссылки, абсолютные пути (в т.ч. "C:\...") и выход через ".." отбрасываются.
func SanitizeImageRef(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", false
	case IsInlineImage(ref):
		return ref, true
	case strings.Contains(ref, "://"):
		return "", false
	}
	slashed := strings.ReplaceAll(ref, `\`, "/")
	if strings.HasPrefix(slashed, "/") || (len(slashed) > 1 && slashed[1] == ':') {
		return "", false
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// SanitizeImages приводит images к допустимому виду и возвращает отброшенные ссылки.
// Если отбрасывать нечего, список не трогается.
func (l *Listing) SanitizeImages() (dropped []string) {
	if len(l.Images) == 0 {
		return nil
	}
	kept := make([]string, 0, len(l.Images))
	changed := false
	for _, ref := range l.Images {
		clean, ok := SanitizeImageRef(ref)
		if !ok {
			dropped = append(dropped, ref)
			changed = true
			continue
		}
		if clean != ref {
			changed = true
		}
		kept = append(kept, clean)
	}
	if changed {
		l.Images = kept
	}
	return dropped
}
