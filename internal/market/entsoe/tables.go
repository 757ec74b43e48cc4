package entsoe

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Tables holds the lookup data needed to query and interpret ENTSO-E documents.
type Tables struct {
	Countries  map[string]string  `yaml:"countries"`
	PSRTypes   map[string]string  `yaml:"psr_types"`
	CO2Factors map[string]float64 `yaml:"co2_factors"`
}

// LoadTables parses the embedded lookup tables.
func LoadTables() (*Tables, error) {
	return ParseTables(tablesYAML)
}

// ParseTables parses lookup tables from YAML.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing entsoe tables: %w", err)
	}
	if len(t.Countries) == 0 {
		return nil, fmt.Errorf("parsing entsoe tables: no countries")
	}
	return &t, nil
}

// Area returns the EIC code for a country name.
func (t *Tables) Area(country string) (string, error) {
	code, ok := t.Countries[country]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	return code, nil
}

// PSRName returns the production type name for code, or code itself.
func (t *Tables) PSRName(code string) (string, bool) {
	name, ok := t.PSRTypes[code]
	if !ok {
		return code, false
	}
	return name, true
}
