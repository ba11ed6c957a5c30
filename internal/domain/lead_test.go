package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactDetails_Validate(t *testing.T) {
	t.Run("complete contact passes", func(t *testing.T) {
		c := ContactDetails{FirstName: "Jan", LastName: "de Vries", Email: "jan@example.nl", Phone: "0612345678"}
		assert.NoError(t, c.Validate("wizard.submit"))
	})

	t.Run("whitespace counts as empty", func(t *testing.T) {
		c := ContactDetails{FirstName: "  ", LastName: "de Vries", Email: "", Phone: "06"}
		err := c.Validate("wizard.submit")
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 2)
		assert.Contains(t, verr.Fields, "firstName")
		assert.Contains(t, verr.Fields, "email")
		assert.Equal(t, EINVALID, ErrorCode(err))
	})
}

func TestContactDetails_FullName(t *testing.T) {
	assert.Equal(t, "Jan de Vries", ContactDetails{FirstName: "Jan", LastName: "de Vries"}.FullName())
	assert.Equal(t, "Jan", ContactDetails{FirstName: "Jan"}.FullName())
}

func TestRecommendation_Display(t *testing.T) {
	r := Recommendation{
		MaxHullSpeedKmh:         11.0227,
		CruisingSpeedKmh:        7.7159,
		RequiredPowerCruisingKw: 0.99734,
		MaxPowerKw:              5.98404,
		SelectedMotor:           MotorCatalogEntry{Name: "GM 4kW", RatedPowerKw: 4},
		SelectedBatteryKwh:      10,
		EstimatedCruisingHours:  10.0267,
		VolgasHours:             1.6711,
	}

	d := r.Display()
	assert.Equal(t, "11.0", d.MaxHullSpeedKmh)
	assert.Equal(t, "7.7", d.CruisingSpeedKmh)
	assert.Equal(t, "1.00", d.RequiredPowerCruisingKw)
	assert.Equal(t, "6.0", d.MaxPowerKw)
	assert.Equal(t, "GM 4kW", d.MotorName)
	assert.Equal(t, "4", d.MotorPowerKw)
	assert.Equal(t, "10", d.BatteryKwh)
	assert.Equal(t, "10.0", d.EstimatedCruisingHours)
	assert.Equal(t, "1.7", d.VolgasHours)
}

func TestErrorHelpers(t *testing.T) {
	wrapped := Unavailable(errors.New("dial tcp: refused"), "lead.submit", "Versturen mislukt")
	assert.Equal(t, EUNAVAILABLE, ErrorCode(wrapped))
	assert.Equal(t, "Versturen mislukt", ErrorMessage(wrapped))
	assert.Equal(t, "lead.submit", ErrorOp(wrapped))

	internal := Internal(errors.New("boom"), "lead.submit", "boom")
	assert.Equal(t, EINTERNAL, ErrorCode(internal))
	assert.NotEqual(t, "boom", ErrorMessage(internal))

	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
	assert.Nil(t, FieldErrors(errors.New("plain")))
}

func TestBoatAnswers_Validate(t *testing.T) {
	assert.NoError(t, BoatAnswers{}.Validate("lead.direct"))
	assert.NoError(t, BoatAnswers{
		CustomerType: CustomerTypeBusiness,
		BoatType:     BoatTypeSloep,
		CurrentDrive: DriveTypeInboard,
		WaterType:    WaterTypeBoth,
		TripDuration: TripDurationLong,
		LengthMeters: 8,
		WeightKg:     3000,
	}.Validate("lead.direct"))

	err := BoatAnswers{BoatType: "kano", TripDuration: "12+", WeightKg: -1}.Validate("lead.direct")
	require.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))
	fields := FieldErrors(err)
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "boatType")
	assert.Contains(t, fields, "tripDuration")
	assert.Contains(t, fields, "boatWeight")
}
