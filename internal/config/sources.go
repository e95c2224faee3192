package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reputwatch/internal/domain/entity"
)

// rawSourceFile mirrors the on-disk feed source configuration format from
// spec.md §6: {"sources": [{"name", "url", "category", "priority", "timeout"}, ...]}.
// Each entry decodes into a generic map rather than a strict struct, so
// unknown keys do not cause a parse error; parseSourceEntry reads only name,
// url, category, priority and timeout, and any other key is dropped.
type rawSourceFile struct {
	Sources []map[string]interface{} `json:"sources" yaml:"sources"`
}

// LoadSources reads a feed source configuration file. The format (JSON or
// YAML) is inferred from the file extension; JSON is preferred per spec.md
// §6 when the extension is ambiguous.
func LoadSources(path string) ([]entity.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file %s: %w", path, err)
	}

	var raw rawSourceFile
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML sources file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON sources file %s: %w", path, err)
		}
	}

	sources := make([]entity.FeedSource, 0, len(raw.Sources))
	for i, entry := range raw.Sources {
		src, err := parseSourceEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("source entry %d: %w", i, err)
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source entry %d (%s): %w", i, src.Name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func parseSourceEntry(entry map[string]interface{}) (entity.FeedSource, error) {
	src := entity.FeedSource{
		Priority: entity.PriorityMedium,
		Active:   true,
	}

	if name, ok := entry["name"].(string); ok {
		src.Name = name
	}
	if url, ok := entry["url"].(string); ok {
		src.URL = url
	}
	if category, ok := entry["category"].(string); ok {
		src.Category = category
	}
	if raw, ok := entry["priority"]; ok {
		p, err := entity.ParsePriority(raw)
		if err != nil {
			return entity.FeedSource{}, fmt.Errorf("priority: %w", err)
		}
		src.Priority = p
	}
	if raw, ok := entry["timeout"]; ok {
		var secs float64
		switch v := raw.(type) {
		case float64:
			secs = v
		case int:
			secs = float64(v)
		default:
			return entity.FeedSource{}, fmt.Errorf("timeout: expected a number of seconds, got %T", raw)
		}
		src.Timeout = time.Duration(secs) * time.Second
	}

	return src, nil
}
