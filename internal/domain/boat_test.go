package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoatParameters_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         BoatParameters
		wantLength float64
		wantWeight float64
	}{
		{"absent values use defaults", BoatParameters{}, 6, 2000},
		{"in range unchanged", BoatParameters{LengthMeters: 8.5, WeightKg: 3200}, 8.5, 3200},
		{"NaN uses defaults", BoatParameters{LengthMeters: math.NaN(), WeightKg: math.NaN()}, 6, 2000},
		{"Inf uses defaults", BoatParameters{LengthMeters: math.Inf(1), WeightKg: math.Inf(-1)}, 6, 2000},
		{"below minimum clamps", BoatParameters{LengthMeters: 1, WeightKg: 100}, 3, 500},
		{"above maximum clamps", BoatParameters{LengthMeters: 42, WeightKg: 25000}, 20, 20000},
		{"negative clamps to minimum", BoatParameters{LengthMeters: -4, WeightKg: -1}, 3, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantLength, got.LengthMeters)
			assert.Equal(t, tt.wantWeight, got.WeightKg)
		})
	}
}

func TestTripDuration_DesiredHours(t *testing.T) {
	tests := []struct {
		duration TripDuration
		want     float64
	}{
		{TripDurationShort, 3},
		{TripDurationMedium, 6},
		{TripDurationLong, 10},
		{"", 6},
		{"1-2", 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.duration.DesiredHours())
		})
	}
}

func TestParseBoatParameters(t *testing.T) {
	p := ParseBoatParameters("7,5", "abc", " 8+ ")
	assert.Equal(t, 7.5, p.LengthMeters)
	assert.Equal(t, 0.0, p.WeightKg)
	assert.Equal(t, TripDurationLong, p.TripDuration)

	n := p.Normalize()
	assert.Equal(t, 2000.0, n.WeightKg)
}

func TestSnapToStep(t *testing.T) {
	length := func(v float64) float64 {
		return SnapToStep(v, DefaultLengthMeters, MinLengthMeters, MaxLengthMeters, LengthStepMeters)
	}
	weight := func(v float64) float64 {
		return SnapToStep(v, DefaultWeightKg, MinWeightKg, MaxWeightKg, WeightStepKg)
	}

	assert.Equal(t, 6.5, length(6.4))
	assert.Equal(t, 3.0, length(0.2))
	assert.Equal(t, 20.0, length(99))
	assert.Equal(t, 2100.0, weight(2149))
	assert.Equal(t, 500.0, weight(-40))
}

func TestSnapToStep_AbsentValuesTakeDefault(t *testing.T) {
	tests := []struct {
		name string
		v    float64
	}{
		{"zero", 0},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultLengthMeters, SnapToStep(tt.v, DefaultLengthMeters, MinLengthMeters, MaxLengthMeters, LengthStepMeters))
			assert.Equal(t, DefaultWeightKg, SnapToStep(tt.v, DefaultWeightKg, MinWeightKg, MaxWeightKg, WeightStepKg))
		})
	}
}

func TestCategoricalAnswers_IsValid(t *testing.T) {
	assert.True(t, CustomerTypeBusiness.IsValid())
	assert.False(t, CustomerType("overheid").IsValid())
	assert.True(t, BoatTypeSloep.IsValid())
	assert.False(t, BoatType("kano").IsValid())
	assert.True(t, DriveTypeInboard.IsValid())
	assert.False(t, DriveType("buitenboord").IsValid())
	assert.True(t, WaterTypeBoth.IsValid())
	assert.False(t, WaterType("oceaan").IsValid())
	assert.False(t, TripDuration("").IsValid())
}
