// Package wizard implements the calculator questionnaire as an explicit
// state machine. A Session is owned by one visitor and is not safe for
// concurrent use; Controller adds locking and timed auto-advance for hosts
// that serve many callers.
package wizard

import (
	"github.com/DukeRupert/greenmarine/internal/domain"
)

// StepID identifies a questionnaire step.
type StepID string

const (
	StepCustomerType StepID = "customerType"
	StepBoatType     StepID = "boatType"
	StepBoatSpecs    StepID = "boatSpecs"
	StepCurrentDrive StepID = "currentDrive"
	StepWaterType    StepID = "waterType"
	StepTripDuration StepID = "tripDuration"
)

// StepKind tells the presentation layer how to render a step.
type StepKind string

const (
	// KindChoice steps record one option and auto-advance.
	KindChoice StepKind = "choice"
	// KindDimensions steps take slider values and need explicit confirmation.
	KindDimensions StepKind = "dimensions"
)

// Option is one selectable answer.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Slider describes a continuous input.
type Slider struct {
	Field string  `json:"field"`
	Label string  `json:"label"`
	Unit  string  `json:"unit"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
}

// Step is one questionnaire page.
type Step struct {
	ID       StepID   `json:"id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Kind     StepKind `json:"kind"`
	Options  []Option `json:"options,omitempty"`
	Sliders  []Slider `json:"sliders,omitempty"`
}

// HasOption reports whether value is one of the step's options.
func (s Step) HasOption(value string) bool {
	for _, o := range s.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// OptionLabel returns the display label for value, or value itself.
func (s Step) OptionLabel(value string) string {
	for _, o := range s.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

var steps = []Step{
	{
		ID:       StepCustomerType,
		Title:    "Type klant",
		Subtitle: "Bent u particulier of zakelijk?",
		Kind:     KindChoice,
		Options: []Option{
			{Value: string(domain.CustomerTypePrivate), Label: "Particulier"},
			{Value: string(domain.CustomerTypeBusiness), Label: "Zakelijk"},
		},
	},
	{
		ID:       StepBoatType,
		Title:    "Type boot",
		Subtitle: "Wat voor boot heeft u?",
		Kind:     KindChoice,
		Options: []Option{
			{Value: string(domain.BoatTypeSloep), Label: "Sloep"},
			{Value: string(domain.BoatTypeSailboat), Label: "Zeilboot"},
			{Value: string(domain.BoatTypeMotorboat), Label: "Motorboot"},
			{Value: string(domain.BoatTypeSpeedboat), Label: "Speedboot"},
			{Value: string(domain.BoatTypeWorkboat), Label: "Werkboot"},
			{Value: string(domain.BoatTypeOther), Label: "Anders"},
		},
	},
	{
		ID:       StepBoatSpecs,
		Title:    "Boot specificaties",
		Subtitle: "Vul de gegevens van uw boot in",
		Kind:     KindDimensions,
		Sliders: []Slider{
			{Field: "boatLength", Label: "Lengte", Unit: "m", Min: domain.MinLengthMeters, Max: domain.MaxLengthMeters, Step: domain.LengthStepMeters},
			{Field: "boatWeight", Label: "Gewicht", Unit: "kg", Min: domain.MinWeightKg, Max: domain.MaxWeightKg, Step: domain.WeightStepKg},
		},
	},
	{
		ID:       StepCurrentDrive,
		Title:    "Huidige aandrijving",
		Subtitle: "Wat voor motor heeft uw boot nu?",
		Kind:     KindChoice,
		Options: []Option{
			{Value: string(domain.DriveTypeNone), Label: "Geen motor"},
			{Value: string(domain.DriveTypeInboard), Label: "Binnenboord"},
		},
	},
	{
		ID:       StepWaterType,
		Title:    "Vaargebied",
		Subtitle: "Waar vaart u voornamelijk?",
		Kind:     KindChoice,
		Options: []Option{
			{Value: string(domain.WaterTypeInland), Label: "Binnenwater"},
			{Value: string(domain.WaterTypeCoastal), Label: "Kustwater"},
			{Value: string(domain.WaterTypeBoth), Label: "Beide"},
		},
	},
	{
		ID:       StepTripDuration,
		Title:    "Gemiddelde vaartocht",
		Subtitle: "Hoe lang vaart u gemiddeld?",
		Kind:     KindChoice,
		Options: []Option{
			{Value: string(domain.TripDurationShort), Label: "2-4 uur"},
			{Value: string(domain.TripDurationMedium), Label: "4-8 uur"},
			{Value: string(domain.TripDurationLong), Label: "8+ uur"},
		},
	},
}

// StepCount is the number of collection steps.
func StepCount() int {
	return len(steps)
}

// Steps returns a copy of the step definitions in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s.clone()
	}
	return out
}

// StepAt returns the definition at index i.
func StepAt(i int) Step {
	return steps[i].clone()
}

// OptionLabel returns the label of value on the step with the given id,
// or value itself when either is unknown.
func OptionLabel(id StepID, value string) string {
	for _, s := range steps {
		if s.ID == id {
			return s.OptionLabel(value)
		}
	}
	return value
}

func (s Step) clone() Step {
	s.Options = append([]Option(nil), s.Options...)
	s.Sliders = append([]Slider(nil), s.Sliders...)
	return s
}
