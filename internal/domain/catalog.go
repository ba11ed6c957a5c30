// Package domain contains core business types and interfaces.
//
// This file defines the motor catalog consulted by the recommendation engine.
package domain

import (
	"fmt"
)

// MotorCatalogEntry is one motor with the battery packs sold with it.
type MotorCatalogEntry struct {
	Name                 string    `json:"name" yaml:"name"`
	RatedPowerKw         float64   `json:"ratedPowerKw" yaml:"rated_power_kw"`
	MaxSupportedWeightKg float64   `json:"maxSupportedWeightKg" yaml:"max_weight_kg"`
	BatteryOptionsKwh    []float64 `json:"batteryOptionsKwh" yaml:"battery_options_kwh"`
}

// LargestBattery returns the biggest battery option.
func (m MotorCatalogEntry) LargestBattery() float64 {
	return m.BatteryOptionsKwh[len(m.BatteryOptionsKwh)-1]
}

// Clone returns a deep copy so callers cannot mutate catalog data.
func (m MotorCatalogEntry) Clone() MotorCatalogEntry {
	opts := make([]float64, len(m.BatteryOptionsKwh))
	copy(opts, m.BatteryOptionsKwh)
	m.BatteryOptionsKwh = opts
	return m
}

// Catalog is the ordered motor list. Order is ascending by rated power and
// decides which entry wins when several qualify.
type Catalog []MotorCatalogEntry

// Validate checks every catalog invariant.
func (c Catalog) Validate() error {
	const op = "catalog.validate"

	if len(c) == 0 {
		return Invalid(op, "catalog has no entries")
	}

	seen := make(map[string]bool, len(c))
	for i, m := range c {
		if m.Name == "" {
			return Invalid(op, fmt.Sprintf("entry %d has no name", i))
		}
		if seen[m.Name] {
			return Invalid(op, fmt.Sprintf("duplicate motor name %q", m.Name))
		}
		seen[m.Name] = true

		if m.RatedPowerKw <= 0 {
			return Invalid(op, fmt.Sprintf("motor %q: rated power must be positive", m.Name))
		}
		if m.MaxSupportedWeightKg <= 0 {
			return Invalid(op, fmt.Sprintf("motor %q: max weight must be positive", m.Name))
		}
		if i > 0 && m.RatedPowerKw < c[i-1].RatedPowerKw {
			return Invalid(op, fmt.Sprintf("motor %q: catalog must be ordered by ascending power", m.Name))
		}
		if len(m.BatteryOptionsKwh) == 0 {
			return Invalid(op, fmt.Sprintf("motor %q: no battery options", m.Name))
		}
		for j, b := range m.BatteryOptionsKwh {
			if b <= 0 {
				return Invalid(op, fmt.Sprintf("motor %q: battery options must be positive", m.Name))
			}
			if j > 0 && b <= m.BatteryOptionsKwh[j-1] {
				return Invalid(op, fmt.Sprintf("motor %q: battery options must be strictly ascending", m.Name))
			}
		}
	}
	return nil
}

// Last returns the highest-capacity entry, the saturating fallback.
func (c Catalog) Last() MotorCatalogEntry {
	return c[len(c)-1]
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for i, m := range c {
		out[i] = m.Clone()
	}
	return out
}

// Find returns the entry with the given name.
func (c Catalog) Find(name string) (MotorCatalogEntry, bool) {
	for _, m := range c {
		if m.Name == name {
			return m.Clone(), true
		}
	}
	return MotorCatalogEntry{}, false
}
