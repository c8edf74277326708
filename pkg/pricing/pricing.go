// Package pricing holds the static model price table. Prices are expressed
// in USD per one million tokens and looked up by model identifier.
package pricing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrModelNotPriced is returned when a model has no pricing entry. A missing
// price is a configuration defect; it is never treated as zero cost.
var ErrModelNotPriced = errors.New("no pricing entry for model")

// Entry contains per-model pricing information.
type Entry struct {
	Model            string  `yaml:"model"`
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// File is the YAML pricing document for one provider family.
type File struct {
	Provider string  `yaml:"provider"`
	Updated  string  `yaml:"updated"`
	Models   []Entry `yaml:"models"`
}

// Table is a read-only model price lookup. It is immutable after
// construction and safe for concurrent readers.
type Table struct {
	entries map[string]Entry
}

// NewTable builds a table from in-memory entries.
func NewTable(entries ...Entry) *Table {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Model] = e
	}
	return &Table{entries: m}
}

// Lookup returns the pricing entry for a model identifier.
func (t *Table) Lookup(model string) (Entry, error) {
	e, ok := t.entries[model]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrModelNotPriced, model)
	}
	return e, nil
}

// Models returns all priced model identifiers, sorted.
func (t *Table) Models() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of priced models.
func (t *Table) Len() int {
	return len(t.entries)
}

// ParseFile parses a YAML pricing document from raw bytes.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pricing data: %w", err)
	}
	if f.Provider == "" {
		return nil, errors.New("pricing data: missing provider name")
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("pricing data for %s: no models defined", f.Provider)
	}
	return &f, nil
}

// LoadDir reads every *.yaml pricing file in dir and merges them into a
// single table.
func LoadDir(dir string) (*Table, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan pricing dir %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("pricing dir %s: no pricing files", dir)
	}

	var entries []Entry
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pricing file %s: %w", path, err)
		}
		f, err := ParseFile(data)
		if err != nil {
			return nil, fmt.Errorf("pricing file %s: %w", path, err)
		}
		entries = append(entries, f.Models...)
	}
	return NewTable(entries...), nil
}
