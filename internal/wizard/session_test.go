package wizard

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/greenmarine/internal/catalog"
	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/engine"
)

// =============================================================================
// Test Helpers
// =============================================================================

type mockRecommender struct {
	calls         int
	RecommendFunc func(p domain.BoatParameters) domain.Recommendation
}

func (m *mockRecommender) Recommend(p domain.BoatParameters) domain.Recommendation {
	m.calls++
	if m.RecommendFunc != nil {
		return m.RecommendFunc(p)
	}
	return domain.Recommendation{
		Input:              p.Normalize(),
		SelectedMotor:      domain.MotorCatalogEntry{Name: "GM 4kW", RatedPowerKw: 4, BatteryOptionsKwh: []float64{10, 15, 20}},
		SelectedBatteryKwh: 10,
	}
}

func selectAndAdvance(t *testing.T, s *Session, value string) {
	t.Helper()
	ticket, err := s.Select(value)
	require.NoError(t, err)
	require.True(t, s.Advance(ticket))
}

// completeCollection walks a session to Results.
func completeCollection(t *testing.T, s *Session) {
	t.Helper()
	selectAndAdvance(t, s, "particulier")
	selectAndAdvance(t, s, "sloep")
	require.NoError(t, s.SetDimensions(6, 2000))
	require.NoError(t, s.ConfirmDimensions())
	selectAndAdvance(t, s, "geen")
	selectAndAdvance(t, s, "binnenwater")
	selectAndAdvance(t, s, "4-8")
	require.Equal(t, PhaseResults, s.Phase())
}

var validContact = domain.ContactDetails{
	FirstName: "Jan",
	LastName:  "de Vries",
	Email:     "jan@example.nl",
	Phone:     "0612345678",
}

// =============================================================================
// Collecting
// =============================================================================

func TestSession_StartsAtFirstStep(t *testing.T) {
	s := NewSession(&mockRecommender{})
	snap := s.Snapshot()

	assert.Equal(t, PhaseCollecting, snap.Phase)
	assert.Equal(t, 0, snap.StepIndex)
	require.NotNil(t, snap.Step)
	assert.Equal(t, StepCustomerType, snap.Step.ID)
	assert.Equal(t, "Stap 1 van 6", snap.Progress.Label)
	assert.Equal(t, 17, snap.Progress.Percent)
	assert.False(t, snap.CanGoBack)
	assert.Equal(t, 6.0, snap.Dimensions.LengthMeters)
	assert.Equal(t, 2000.0, snap.Dimensions.WeightKg)
}

func TestSession_FullPassCallsRecommenderOnce(t *testing.T) {
	rec := &mockRecommender{}
	s := NewSession(rec)

	completeCollection(t, s)

	assert.Equal(t, 1, rec.calls)
	got, ok := s.Recommendation()
	require.True(t, ok)
	assert.Equal(t, "GM 4kW", got.SelectedMotor.Name)
	assert.Equal(t, StepCount()-1, s.StepIndex())

	answers := s.Answers()
	assert.Equal(t, domain.CustomerTypePrivate, answers.CustomerType)
	assert.Equal(t, domain.BoatTypeSloep, answers.BoatType)
	assert.Equal(t, domain.DriveTypeNone, answers.CurrentDrive)
	assert.Equal(t, domain.WaterTypeInland, answers.WaterType)
	assert.Equal(t, domain.TripDurationMedium, answers.TripDuration)
}

func TestSession_SelectRejectsUnknownOption(t *testing.T) {
	s := NewSession(&mockRecommender{})

	_, err := s.Select("overheid")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.False(t, s.HasPendingAdvance())
}

func TestSession_LastSelectionWins(t *testing.T) {
	s := NewSession(&mockRecommender{})

	first, err := s.Select("particulier")
	require.NoError(t, err)
	second, err := s.Select("zakelijk")
	require.NoError(t, err)

	assert.False(t, s.Advance(first), "superseded ticket must not advance")
	assert.Equal(t, 0, s.StepIndex())

	assert.True(t, s.Advance(second))
	assert.Equal(t, 1, s.StepIndex())
	assert.Equal(t, domain.CustomerTypeBusiness, s.Answers().CustomerType)

	assert.False(t, s.Advance(second), "ticket can only be used once")
	assert.Equal(t, 1, s.StepIndex())
}

func TestSession_SelectNotAllowedOnDimensionsStep(t *testing.T) {
	s := NewSession(&mockRecommender{})
	selectAndAdvance(t, s, "particulier")
	selectAndAdvance(t, s, "motorboot")

	_, err := s.Select("geen")
	assert.Error(t, err)
	assert.Equal(t, 2, s.StepIndex())
}

func TestSession_SetDimensionsClampsAndSnaps(t *testing.T) {
	s := NewSession(&mockRecommender{})
	selectAndAdvance(t, s, "particulier")
	selectAndAdvance(t, s, "motorboot")

	require.NoError(t, s.SetDimensions(25.3, 149))
	assert.Equal(t, 20.0, s.Answers().LengthMeters)
	assert.Equal(t, 500.0, s.Answers().WeightKg)

	require.NoError(t, s.SetDimensions(7.3, 3449))
	assert.Equal(t, 7.5, s.Answers().LengthMeters)
	assert.Equal(t, 3400.0, s.Answers().WeightKg)

	require.NoError(t, s.ConfirmDimensions())
	assert.Equal(t, 3, s.StepIndex())
	assert.False(t, s.HasPendingAdvance())
}

func TestSession_AbsentDimensionsUseDefaults(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	eng, err := engine.New(cat)
	require.NoError(t, err)

	tests := []struct {
		name           string
		length, weight float64
	}{
		{"zero", 0, 0},
		{"nan", math.NaN(), math.NaN()},
		{"infinite", math.Inf(1), math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(eng)
			selectAndAdvance(t, s, "particulier")
			selectAndAdvance(t, s, "motorboot")

			require.NoError(t, s.SetDimensions(tt.length, tt.weight))
			assert.Equal(t, domain.DefaultLengthMeters, s.Answers().LengthMeters)
			assert.Equal(t, domain.DefaultWeightKg, s.Answers().WeightKg)

			require.NoError(t, s.ConfirmDimensions())
			selectAndAdvance(t, s, "geen")
			selectAndAdvance(t, s, "binnenwater")
			selectAndAdvance(t, s, "4-8")

			require.Equal(t, PhaseResults, s.Phase())
			rec, ok := s.Recommendation()
			require.True(t, ok)
			assert.Equal(t, "GM 4kW", rec.SelectedMotor.Name)
			assert.InDelta(t, 7.7, rec.CruisingSpeedKmh, 0.05)
		})
	}
}

func TestSession_DimensionsOnlyOnSpecsStep(t *testing.T) {
	s := NewSession(&mockRecommender{})

	assert.Error(t, s.SetDimensions(6, 2000))
	assert.Error(t, s.ConfirmDimensions())
	assert.Equal(t, 0, s.StepIndex())
}

func TestSession_UntouchedSlidersUseEngineDefaults(t *testing.T) {
	rec := &mockRecommender{}
	var got domain.BoatParameters
	rec.RecommendFunc = func(p domain.BoatParameters) domain.Recommendation {
		got = p
		return domain.Recommendation{SelectedMotor: domain.MotorCatalogEntry{Name: "x"}}
	}
	s := NewSession(rec)

	selectAndAdvance(t, s, "zakelijk")
	selectAndAdvance(t, s, "werkboot")
	require.NoError(t, s.ConfirmDimensions())
	selectAndAdvance(t, s, "binnenboord")
	selectAndAdvance(t, s, "kustwater")
	selectAndAdvance(t, s, "8+")

	assert.Equal(t, 0.0, got.LengthMeters)
	assert.Equal(t, 0.0, got.WeightKg)
	assert.Equal(t, domain.TripDurationLong, got.TripDuration)
}

// =============================================================================
// Navigation
// =============================================================================

func TestSession_Back(t *testing.T) {
	t.Run("no-op at first step", func(t *testing.T) {
		s := NewSession(&mockRecommender{})
		s.Back()
		assert.Equal(t, 0, s.StepIndex())
		assert.Equal(t, PhaseCollecting, s.Phase())
	})

	t.Run("cancels pending advance", func(t *testing.T) {
		s := NewSession(&mockRecommender{})
		selectAndAdvance(t, s, "particulier")

		ticket, err := s.Select("sloep")
		require.NoError(t, err)
		s.Back()

		assert.Equal(t, 0, s.StepIndex())
		assert.False(t, s.HasPendingAdvance())
		assert.False(t, s.Advance(ticket))
		assert.Equal(t, 0, s.StepIndex())
	})

	t.Run("no-op in results", func(t *testing.T) {
		s := NewSession(&mockRecommender{})
		completeCollection(t, s)
		s.Back()
		assert.Equal(t, PhaseResults, s.Phase())
	})

	t.Run("contact form returns to results unchanged", func(t *testing.T) {
		rec := &mockRecommender{}
		s := NewSession(rec)
		completeCollection(t, s)
		before, _ := s.Recommendation()

		require.NoError(t, s.RequestQuote())
		s.Back()

		assert.Equal(t, PhaseResults, s.Phase())
		after, _ := s.Recommendation()
		assert.Equal(t, before, after)
		assert.Equal(t, 1, rec.calls)
	})
}

func TestSession_StepIndexStaysInRange(t *testing.T) {
	s := NewSession(&mockRecommender{})
	for i := 0; i < 10; i++ {
		s.Back()
		assert.GreaterOrEqual(t, s.StepIndex(), 0)
	}
	completeCollection(t, s)
	assert.Less(t, s.StepIndex(), StepCount())

	_, err := s.Select("particulier")
	assert.Error(t, err)
}

func TestSession_RequestQuoteDoesNotRecompute(t *testing.T) {
	rec := &mockRecommender{}
	s := NewSession(rec)
	completeCollection(t, s)

	require.NoError(t, s.RequestQuote())
	assert.Equal(t, PhaseContactForm, s.Phase())
	assert.Equal(t, 1, rec.calls)

	assert.Error(t, s.RequestQuote())
}

func TestSession_Recalculate(t *testing.T) {
	for _, phase := range []Phase{PhaseResults, PhaseContactForm, PhaseSubmitted} {
		t.Run(string(phase), func(t *testing.T) {
			s := NewSession(&mockRecommender{})
			completeCollection(t, s)
			if phase != PhaseResults {
				require.NoError(t, s.RequestQuote())
				require.NoError(t, s.SetContact(validContact))
			}
			if phase == PhaseSubmitted {
				sub, _, err := s.BeginSubmission(time.Now())
				require.NoError(t, err)
				s.CompleteSubmission(sub, nil)
				require.Equal(t, PhaseSubmitted, s.Phase())
			}

			require.NoError(t, s.Recalculate())

			snap := s.Snapshot()
			assert.Equal(t, PhaseCollecting, snap.Phase)
			assert.Equal(t, 0, snap.StepIndex)
			assert.Equal(t, domain.BoatAnswers{}, snap.Answers)
			assert.Equal(t, domain.ContactDetails{}, snap.Contact)
			assert.Nil(t, snap.Recommendation)
			_, ok := s.Recommendation()
			assert.False(t, ok)

			// Idempotent in effect: a second pass behaves like the first.
			completeCollection(t, s)
			require.NoError(t, s.Recalculate())
			assert.Equal(t, domain.BoatAnswers{}, s.Answers())
		})
	}

	t.Run("rejected while collecting", func(t *testing.T) {
		s := NewSession(&mockRecommender{})
		assert.Error(t, s.Recalculate())
	})
}

// =============================================================================
// Submission
// =============================================================================

func TestSession_BeginSubmissionValidatesContact(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(domain.ContactDetails{FirstName: "Jan", Email: "jan@example.nl"}))

	_, _, err := s.BeginSubmission(time.Now())
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	snap := s.Snapshot()
	assert.Equal(t, PhaseContactForm, snap.Phase)
	assert.Contains(t, snap.FieldErrors, "lastName")
	assert.Contains(t, snap.FieldErrors, "phone")
	assert.NotContains(t, snap.FieldErrors, "firstName")
	assert.False(t, snap.Submitting)
}

func TestSession_SubmissionPayload(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(domain.ContactDetails{
		FirstName: " Jan ", LastName: "de Vries", Email: "jan@example.nl", Phone: "06",
	}))

	now := time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC)
	_, payload, err := s.BeginSubmission(now)
	require.NoError(t, err)

	assert.Equal(t, "Jan", payload.Contact.FirstName)
	assert.Equal(t, domain.LeadSourceCalculator, payload.Source)
	assert.Equal(t, now, payload.SubmittedAt)
	assert.Equal(t, "GM 4kW", payload.Recommendation.SelectedMotor.Name)
	assert.Equal(t, domain.TripDurationMedium, payload.Answers.TripDuration)
	assert.NotEqual(t, "", payload.SubmissionID.String())
}

func TestSession_OneSubmissionInFlight(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(validContact))

	sub, _, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Submitting)

	_, _, err = s.BeginSubmission(time.Now())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	s.CompleteSubmission(sub, nil)
	snap := s.Snapshot()
	assert.Equal(t, PhaseSubmitted, snap.Phase)
	assert.Equal(t, ConfirmationMessage, snap.Confirmation)
	assert.False(t, snap.CanGoBack)

	s.Back()
	assert.Equal(t, PhaseSubmitted, s.Phase())
}

func TestSession_FailedSubmissionIsRetryable(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(validContact))
	answers := s.Answers()

	sub, first, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	s.CompleteSubmission(sub, errors.New("crm down"))

	snap := s.Snapshot()
	assert.Equal(t, PhaseContactForm, snap.Phase)
	assert.Equal(t, SubmitFailedMessage, snap.SubmitError)
	assert.Equal(t, answers, snap.Answers)
	assert.Equal(t, validContact, snap.Contact)

	sub, retry, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.SubmissionID, retry.SubmissionID, "retry keeps the submission ID")
	s.CompleteSubmission(sub, nil)
	assert.Equal(t, PhaseSubmitted, s.Phase())
}

func TestSession_EditedContactGetsNewSubmissionID(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(validContact))

	sub, first, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	s.CompleteSubmission(sub, errors.New("timeout"))

	edited := validContact
	edited.Phone = "0687654321"
	require.NoError(t, s.SetContact(edited))

	_, second, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
}

func TestSession_CompletionAfterResetIsDropped(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(validContact))

	sub, _, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Recalculate())

	s.CompleteSubmission(sub, nil)
	assert.Equal(t, PhaseCollecting, s.Phase())
	assert.False(t, s.Snapshot().Submitting)
}

func TestSession_BackIgnoredWhileSubmitting(t *testing.T) {
	s := NewSession(&mockRecommender{})
	completeCollection(t, s)
	require.NoError(t, s.RequestQuote())
	require.NoError(t, s.SetContact(validContact))

	sub, _, err := s.BeginSubmission(time.Now())
	require.NoError(t, err)

	s.Back()
	assert.Equal(t, PhaseContactForm, s.Phase())
	assert.False(t, s.Snapshot().CanGoBack)

	s.CompleteSubmission(sub, errors.New("sink down"))
	assert.Equal(t, PhaseContactForm, s.Phase())
	assert.Equal(t, SubmitFailedMessage, s.Snapshot().SubmitError)

	s.Back()
	assert.Equal(t, PhaseResults, s.Phase())
	assert.Empty(t, s.Snapshot().SubmitError)
}

func TestSession_CompletionOutsideContactFormIsDropped(t *testing.T) {
	for _, outcome := range []error{nil, errors.New("sink down")} {
		s := NewSession(&mockRecommender{})
		completeCollection(t, s)
		require.NoError(t, s.RequestQuote())
		require.NoError(t, s.SetContact(validContact))

		sub, _, err := s.BeginSubmission(time.Now())
		require.NoError(t, err)
		// Force the phase change a concurrent Back used to cause.
		s.phase = PhaseResults

		s.CompleteSubmission(sub, outcome)
		assert.Equal(t, PhaseResults, s.Phase())
		assert.Empty(t, s.Snapshot().SubmitError)
		assert.False(t, s.Snapshot().Submitting)

		require.NoError(t, s.RequestQuote())
		assert.Empty(t, s.Snapshot().SubmitError)
	}
}

func TestSession_SubmitOutsideContactForm(t *testing.T) {
	s := NewSession(&mockRecommender{})
	_, _, err := s.BeginSubmission(time.Now())
	assert.Error(t, err)
	assert.Error(t, s.SetContact(validContact))
}

func TestSteps(t *testing.T) {
	all := Steps()
	require.Len(t, all, 6)

	titles := []string{"Type klant", "Type boot", "Boot specificaties", "Huidige aandrijving", "Vaargebied", "Gemiddelde vaartocht"}
	for i, s := range all {
		assert.Equal(t, titles[i], s.Title)
		if s.ID == StepBoatSpecs {
			assert.Equal(t, KindDimensions, s.Kind)
			assert.Len(t, s.Sliders, 2)
			continue
		}
		assert.Equal(t, KindChoice, s.Kind)
		assert.NotEmpty(t, s.Options)
	}

	all[0].Options[0].Value = "changed"
	assert.True(t, StepAt(0).HasOption("particulier"))
	assert.Equal(t, "8+ uur", StepAt(5).OptionLabel("8+"))
	assert.Equal(t, "Geen motor", OptionLabel(StepCurrentDrive, "geen"))
	assert.Equal(t, "onbekend", OptionLabel(StepWaterType, "onbekend"))
}
