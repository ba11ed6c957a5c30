package domain

import (
	"strconv"
)

// Recommendation is the engine output. All values are full precision;
// presentation rounding lives in Display.
type Recommendation struct {
	Input        BoatParameters `json:"input"`
	DesiredHours float64        `json:"desiredHours"`

	MaxHullSpeedKmh         float64 `json:"maxHullSpeedKmh"`
	CruisingSpeedKmh        float64 `json:"cruisingSpeedKmh"`
	RequiredPowerCruisingKw float64 `json:"requiredPowerCruisingKw"`
	MaxPowerKw              float64 `json:"maxPowerKw"`

	SelectedMotor      MotorCatalogEntry `json:"selectedMotor"`
	SelectedBatteryKwh float64           `json:"selectedBatteryKwh"`

	EstimatedCruisingHours float64 `json:"estimatedCruisingHours"`
	VolgasHours            float64 `json:"volgasHours"`

	// MotorFallback is set when no entry satisfied both power and weight
	// and the last catalog entry was used.
	MotorFallback bool `json:"motorFallback"`
	// BatteryFallback is set when no option covered the target energy.
	BatteryFallback bool `json:"batteryFallback"`
}

// RecommendationDisplay holds presentation-rounded values as strings.
type RecommendationDisplay struct {
	MaxHullSpeedKmh         string `json:"maxHullSpeedKmh"`
	CruisingSpeedKmh        string `json:"cruisingSpeedKmh"`
	RequiredPowerCruisingKw string `json:"requiredPowerCruisingKw"`
	MaxPowerKw              string `json:"maxPowerKw"`
	MotorName               string `json:"motorName"`
	MotorPowerKw            string `json:"motorPowerKw"`
	BatteryKwh              string `json:"batteryKwh"`
	EstimatedCruisingHours  string `json:"estimatedCruisingHours"`
	VolgasHours             string `json:"volgasHours"`
}

// Display rounds speeds, powers and hours to one decimal and the cruising
// power to two.
func (r Recommendation) Display() RecommendationDisplay {
	return RecommendationDisplay{
		MaxHullSpeedKmh:         fixed(r.MaxHullSpeedKmh, 1),
		CruisingSpeedKmh:        fixed(r.CruisingSpeedKmh, 1),
		RequiredPowerCruisingKw: fixed(r.RequiredPowerCruisingKw, 2),
		MaxPowerKw:              fixed(r.MaxPowerKw, 1),
		MotorName:               r.SelectedMotor.Name,
		MotorPowerKw:            strconv.FormatFloat(r.SelectedMotor.RatedPowerKw, 'f', -1, 64),
		BatteryKwh:              strconv.FormatFloat(r.SelectedBatteryKwh, 'f', -1, 64),
		EstimatedCruisingHours:  fixed(r.EstimatedCruisingHours, 1),
		VolgasHours:             fixed(r.VolgasHours, 1),
	}
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
