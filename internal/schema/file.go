package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the on-disk YAML structure of schema.yaml.
type fileSchema struct {
	Columns []Column `yaml:"columns"`
}

// Load reads and validates a schema.yaml file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	return New(fs.Columns)
}

// Marshal encodes the schema as YAML, preserving column order.
func (s *Schema) Marshal() ([]byte, error) {
	return yaml.Marshal(fileSchema{Columns: s.columns})
}

// Save writes the schema to path.
func (s *Schema) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	return nil
}
