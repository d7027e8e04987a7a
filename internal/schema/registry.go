// internal/schema/registry.go
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrUnknownTable signals a lookup for a table the registry does not hold.
// The HTTP layer maps it to 404 without leaking which tables do exist.
var ErrUnknownTable = errors.New("unknown table")

// TableConfig is the static, immutable description of one exposed table:
// which fields exist, which may be filtered/sorted/searched, the primary key,
// and the optional field holding the creating user's identity.
type TableConfig struct {
	Name       string
	Fields     []string
	PrimaryKey string
	OwnerField string
	Filterable map[string]bool
	Sortable   map[string]bool
	Searchable []string
	Types      map[string]FieldType
}

// FieldType returns the declared type of a field, defaulting to TEXT.
func (c *TableConfig) FieldType(field string) FieldType {
	if ft, ok := c.Types[field]; ok {
		return ft
	}
	return TypeText
}

// HasField reports whether the field is part of the selectable field list.
func (c *TableConfig) HasField(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Registry holds every TableConfig, keyed by table name. Loaded once at
// startup and safe for unsynchronized concurrent reads afterwards.
type Registry struct {
	tables map[string]*TableConfig
}

// Get looks up a table's configuration by name.
func (r *Registry) Get(name string) (*TableConfig, error) {
	cfg, ok := r.tables[name]
	if !ok {
		return nil, ErrUnknownTable
	}
	return cfg, nil
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tableConfigJSON is the on-disk shape of one table entry.
type tableConfigJSON struct {
	Name       string            `json:"name"`
	Fields     []string          `json:"fields"`
	PrimaryKey string            `json:"primary_key"`
	OwnerField string            `json:"owner_field,omitempty"`
	Filterable []string          `json:"filterable,omitempty"`
	Sortable   []string          `json:"sortable,omitempty"`
	Searchable []string          `json:"searchable,omitempty"`
	Types      map[string]string `json:"types,omitempty"`
}

// LoadRegistry reads and validates the table configuration file. Every
// declared identifier must pass the same whitelist rule applied to request
// input, and every filterable/sortable/searchable field, the primary key and
// the owner field must appear in the field list.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a Registry from raw JSON configuration.
func ParseRegistry(data []byte) (*Registry, error) {
	var entries []tableConfigJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("tables file declares no tables")
	}

	tables := make(map[string]*TableConfig, len(entries))
	for _, entry := range entries {
		cfg, err := buildTableConfig(entry)
		if err != nil {
			return nil, err
		}
		if _, exists := tables[cfg.Name]; exists {
			return nil, fmt.Errorf("table '%s' declared twice", cfg.Name)
		}
		tables[cfg.Name] = cfg
	}
	return &Registry{tables: tables}, nil
}

func buildTableConfig(entry tableConfigJSON) (*TableConfig, error) {
	if !IsValidIdentifier(entry.Name) {
		return nil, fmt.Errorf("invalid table name '%s'", entry.Name)
	}
	if len(entry.Fields) == 0 {
		return nil, fmt.Errorf("table '%s' declares no fields", entry.Name)
	}

	cfg := &TableConfig{
		Name:       entry.Name,
		Fields:     entry.Fields,
		PrimaryKey: entry.PrimaryKey,
		OwnerField: entry.OwnerField,
		Filterable: make(map[string]bool, len(entry.Filterable)),
		Sortable:   make(map[string]bool, len(entry.Sortable)),
		Searchable: entry.Searchable,
		Types:      make(map[string]FieldType, len(entry.Types)),
	}

	for _, field := range entry.Fields {
		if !IsValidIdentifier(field) {
			return nil, fmt.Errorf("table '%s': invalid field name '%s'", entry.Name, field)
		}
	}
	if cfg.PrimaryKey == "" || !cfg.HasField(cfg.PrimaryKey) {
		return nil, fmt.Errorf("table '%s': primary key '%s' is not a declared field", entry.Name, entry.PrimaryKey)
	}
	if cfg.OwnerField != "" && !cfg.HasField(cfg.OwnerField) {
		return nil, fmt.Errorf("table '%s': owner field '%s' is not a declared field", entry.Name, entry.OwnerField)
	}

	for _, field := range entry.Filterable {
		if !cfg.HasField(field) {
			return nil, fmt.Errorf("table '%s': filterable field '%s' is not a declared field", entry.Name, field)
		}
		cfg.Filterable[field] = true
	}
	for _, field := range entry.Sortable {
		if !cfg.HasField(field) {
			return nil, fmt.Errorf("table '%s': sortable field '%s' is not a declared field", entry.Name, field)
		}
		cfg.Sortable[field] = true
	}
	for _, field := range entry.Searchable {
		if !cfg.HasField(field) {
			return nil, fmt.Errorf("table '%s': searchable field '%s' is not a declared field", entry.Name, field)
		}
	}
	for field, rawType := range entry.Types {
		if !cfg.HasField(field) {
			return nil, fmt.Errorf("table '%s': type declared for unknown field '%s'", entry.Name, field)
		}
		normalized, ok := NormalizeAndValidateType(rawType)
		if !ok {
			return nil, fmt.Errorf("table '%s': unsupported type '%s' for field '%s'", entry.Name, rawType, field)
		}
		cfg.Types[field] = normalized
	}

	return cfg, nil
}
