// Package catalog loads the motor catalog used by the recommendation engine.
//
// The built-in catalog is embedded in the binary. Deployments can override it
// with a YAML file of the same shape (CATALOG_PATH).
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

//go:embed motors.yaml
var embedded []byte

type document struct {
	Motors []domain.MotorCatalogEntry `yaml:"motors"`
}

// Default returns the embedded catalog.
func Default() (domain.Catalog, error) {
	c, err := Parse(embedded)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog from path. An empty path returns the embedded catalog.
func Load(path string) (domain.Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected so
// a typo cannot silently drop a constraint.
func Parse(data []byte) (domain.Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := domain.Catalog(doc.Motors)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
