package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"reputwatch/internal/domain/entity"
)

// LoadTaxonomy reads a category->subcategory taxonomy override file (JSON or
// YAML, inferred from extension). An empty path returns the built-in
// entity.DefaultTaxonomy() unchanged.
func LoadTaxonomy(path string) (entity.Taxonomy, error) {
	if path == "" {
		return entity.DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file %s: %w", path, err)
	}

	tax := make(entity.Taxonomy)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tax); err != nil {
			return nil, fmt.Errorf("parsing YAML taxonomy file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &tax); err != nil {
			return nil, fmt.Errorf("parsing JSON taxonomy file %s: %w", path, err)
		}
	}

	if len(tax) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no categories", path)
	}
	return tax, nil
}
