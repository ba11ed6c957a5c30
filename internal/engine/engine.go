// Package engine computes motor and battery recommendations.
//
// The power estimate is a closed-form displacement-hull approximation:
//
//	hull speed     = 4.5 * sqrt(length)            km/h
//	cruising speed = 0.7 * hull speed              km/h
//	power          = (W/1000)^0.67 * (v/1.852)^3 / 150 * 1.3   kW
//
// Catalog selection picks the first motor that covers both the required
// power and the boat weight, saturating at the last entry.
package engine

import (
	"math"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/metrics"
)

const (
	hullSpeedFactor    = 4.5
	cruisingFraction   = 0.7
	weightExponent     = 0.67
	kmhPerKnot         = 1.852
	powerDivisor       = 150.0
	safetyMargin       = 1.3
	fullThrottleFactor = 6.0
)

// Engine is safe for concurrent use. It holds a private copy of the catalog.
type Engine struct {
	catalog domain.Catalog
}

// New validates the catalog and returns an engine bound to it.
func New(catalog domain.Catalog) (*Engine, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: catalog.Clone()}, nil
}

// Catalog returns a copy of the engine's catalog.
func (e *Engine) Catalog() domain.Catalog {
	return e.catalog.Clone()
}

// Recommend never fails. Input is defaulted and clamped first.
func (e *Engine) Recommend(params domain.BoatParameters) domain.Recommendation {
	in := params.Normalize()
	hours := in.DesiredHours()

	maxHull := hullSpeedFactor * math.Sqrt(in.LengthMeters)
	cruising := cruisingFraction * maxHull
	required := RequiredPowerKw(in.WeightKg, cruising)
	maxPower := required * fullThrottleFactor

	motor, motorFallback := e.selectMotor(required, in.WeightKg)
	battery, batteryFallback := selectBattery(motor, required*hours)

	rec := domain.Recommendation{
		Input:                   in,
		DesiredHours:            hours,
		MaxHullSpeedKmh:         maxHull,
		CruisingSpeedKmh:        cruising,
		RequiredPowerCruisingKw: required,
		MaxPowerKw:              maxPower,
		SelectedMotor:           motor,
		SelectedBatteryKwh:      battery,
		EstimatedCruisingHours:  battery / required,
		VolgasHours:             battery / maxPower,
		MotorFallback:           motorFallback,
		BatteryFallback:         batteryFallback,
	}

	metrics.RecommendationComputed(motor.Name, motorFallback, batteryFallback)
	return rec
}

// RequiredPowerKw is the cruising power estimate including the safety margin.
func RequiredPowerKw(weightKg, cruisingKmh float64) float64 {
	knots := cruisingKmh / kmhPerKnot
	raw := math.Pow(weightKg/1000, weightExponent) * math.Pow(knots, 3) / powerDivisor
	return raw * safetyMargin
}

// selectMotor returns the first entry meeting both power and weight, or
// the last entry with fallback set.
func (e *Engine) selectMotor(requiredKw, weightKg float64) (domain.MotorCatalogEntry, bool) {
	for _, m := range e.catalog {
		if m.RatedPowerKw >= requiredKw && m.MaxSupportedWeightKg >= weightKg {
			return m.Clone(), false
		}
	}
	return e.catalog.Last().Clone(), true
}

func selectBattery(motor domain.MotorCatalogEntry, targetKwh float64) (float64, bool) {
	for _, b := range motor.BatteryOptionsKwh {
		if b >= targetKwh {
			return b, false
		}
	}
	return motor.LargestBattery(), true
}
