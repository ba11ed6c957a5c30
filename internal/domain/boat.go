// Package domain contains core business types and interfaces.
//
// This file defines the boat and usage answers collected by the calculator
// wizard, and the normalized parameter set handed to the recommendation engine.
package domain

import (
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// Dimension Bounds
// =============================================================================

const (
	// DefaultLengthMeters is used when no usable length was supplied.
	DefaultLengthMeters = 6.0
	// MinLengthMeters and MaxLengthMeters bound the length slider.
	MinLengthMeters = 3.0
	MaxLengthMeters = 20.0
	// LengthStepMeters is the slider increment for length.
	LengthStepMeters = 0.5

	// DefaultWeightKg is used when no usable weight was supplied.
	DefaultWeightKg = 2000.0
	// MinWeightKg and MaxWeightKg bound the weight slider.
	MinWeightKg = 500.0
	MaxWeightKg = 20000.0
	// WeightStepKg is the slider increment for weight.
	WeightStepKg = 100.0

	// DefaultDesiredHours applies to absent or unmapped trip durations.
	DefaultDesiredHours = 6.0
)

// =============================================================================
// Trip Duration
// =============================================================================

// TripDuration is the average trip length category chosen by the visitor.
type TripDuration string

const (
	TripDurationShort  TripDuration = "2-4"
	TripDurationMedium TripDuration = "4-8"
	TripDurationLong   TripDuration = "8+"
)

// String returns the string representation of the duration.
func (d TripDuration) String() string {
	return string(d)
}

// IsValid returns true if the duration is a recognized category.
func (d TripDuration) IsValid() bool {
	switch d {
	case TripDurationShort, TripDurationMedium, TripDurationLong:
		return true
	}
	return false
}

// DesiredHours maps the category to a representative number of sailing hours.
// Unknown or empty categories map to DefaultDesiredHours.
func (d TripDuration) DesiredHours() float64 {
	switch d {
	case TripDurationShort:
		return 3
	case TripDurationMedium:
		return 6
	case TripDurationLong:
		return 10
	}
	return DefaultDesiredHours
}

// =============================================================================
// Categorical Answers
// =============================================================================

// CustomerType distinguishes private from business customers.
type CustomerType string

const (
	CustomerTypePrivate  CustomerType = "particulier"
	CustomerTypeBusiness CustomerType = "zakelijk"
)

// IsValid returns true if the customer type is recognized.
func (c CustomerType) IsValid() bool {
	return c == CustomerTypePrivate || c == CustomerTypeBusiness
}

// BoatType is the boat category.
type BoatType string

const (
	BoatTypeSloep     BoatType = "sloep"
	BoatTypeSailboat  BoatType = "zeilboot"
	BoatTypeMotorboat BoatType = "motorboot"
	BoatTypeSpeedboat BoatType = "speedboot"
	BoatTypeWorkboat  BoatType = "werkboot"
	BoatTypeOther     BoatType = "anders"
)

// IsValid returns true if the boat type is recognized.
func (b BoatType) IsValid() bool {
	switch b {
	case BoatTypeSloep, BoatTypeSailboat, BoatTypeMotorboat,
		BoatTypeSpeedboat, BoatTypeWorkboat, BoatTypeOther:
		return true
	}
	return false
}

// DriveType is the propulsion currently installed in the boat.
type DriveType string

const (
	DriveTypeNone    DriveType = "geen"
	DriveTypeInboard DriveType = "binnenboord"
)

// IsValid returns true if the drive type is recognized.
func (d DriveType) IsValid() bool {
	return d == DriveTypeNone || d == DriveTypeInboard
}

// WaterType is the main sailing area.
type WaterType string

const (
	WaterTypeInland  WaterType = "binnenwater"
	WaterTypeCoastal WaterType = "kustwater"
	WaterTypeBoth    WaterType = "beide"
)

// IsValid returns true if the water type is recognized.
func (w WaterType) IsValid() bool {
	switch w {
	case WaterTypeInland, WaterTypeCoastal, WaterTypeBoth:
		return true
	}
	return false
}

// =============================================================================
// Boat Parameters
// =============================================================================

// BoatParameters is the engine input. Zero values mean "absent".
type BoatParameters struct {
	LengthMeters float64      `json:"lengthMeters"`
	WeightKg     float64      `json:"weightKg"`
	TripDuration TripDuration `json:"tripDuration"`
}

// Normalize applies the defaulting and clamping policy. Missing or
// non-finite values are replaced by defaults, then clamped to the slider
// domain. It never fails.
func (p BoatParameters) Normalize() BoatParameters {
	return BoatParameters{
		LengthMeters: normalizeDimension(p.LengthMeters, DefaultLengthMeters, MinLengthMeters, MaxLengthMeters),
		WeightKg:     normalizeDimension(p.WeightKg, DefaultWeightKg, MinWeightKg, MaxWeightKg),
		TripDuration: p.TripDuration,
	}
}

// DesiredHours returns the sailing hours implied by the trip duration.
func (p BoatParameters) DesiredHours() float64 {
	return p.TripDuration.DesiredHours()
}

func normalizeDimension(v, fallback, lo, hi float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	return math.Min(math.Max(v, lo), hi)
}

// ParseBoatParameters builds parameters from raw text input such as form
// fields or CLI flags. Unparseable numbers are treated as absent.
func ParseBoatParameters(length, weight, duration string) BoatParameters {
	return BoatParameters{
		LengthMeters: parseNumber(length),
		WeightKg:     parseNumber(weight),
		TripDuration: TripDuration(strings.TrimSpace(duration)),
	}
}

// parseNumber accepts both "6.5" and the Dutch "6,5".
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// SnapToStep clamps v to [lo, hi] and rounds it to the nearest slider step.
// A zero or non-finite v is absent and takes fallback instead.
func SnapToStep(v, fallback, lo, hi, step float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	v = math.Min(math.Max(v, lo), hi)
	if step <= 0 {
		return v
	}
	snapped := lo + math.Round((v-lo)/step)*step
	return math.Min(snapped, hi)
}
