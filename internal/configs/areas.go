package configs

import (
	"fmt"
	"os"

	"room-listing-service/internal/core/domain"

	"gopkg.in/yaml.v3"
)

// areasFile - формат AREAS_FILE:
//
//	areas:
//	  binh-thanh: ["binh thanh", "bình thạnh"]
//	  go-vap: ["go vap"]
type areasFile struct {
	Areas map[string][]string `yaml:"areas"`
}

// LoadAreaKeywords читает карту районов из YAML. Пустой путь - встроенная карта.
func LoadAreaKeywords(path string) (domain.AreaKeywords, error) {
	if path == "" {
		return domain.DefaultAreaKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read areas file %s: %w", path, err)
	}

	var parsed areasFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse areas file %s: %w", path, err)
	}
	if len(parsed.Areas) == 0 {
		return nil, fmt.Errorf("areas file %s defines no areas", path)
	}
	return domain.AreaKeywords(parsed.Areas), nil
}
