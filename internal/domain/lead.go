package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadSource identifies where a lead came from.
const LeadSourceCalculator = "calculator"

// ContactDetails is the contact form.
type ContactDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (c ContactDetails) Trimmed() ContactDetails {
	return ContactDetails{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
	}
}

// FullName joins first and last name.
func (c ContactDetails) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate requires every contact field to be non-empty.
func (c ContactDetails) Validate(op string) error {
	c = c.Trimmed()
	verr := &ValidationError{Op: op}
	if c.FirstName == "" {
		verr.Add("firstName", "Voornaam is verplicht")
	}
	if c.LastName == "" {
		verr.Add("lastName", "Achternaam is verplicht")
	}
	if c.Email == "" {
		verr.Add("email", "E-mailadres is verplicht")
	}
	if c.Phone == "" {
		verr.Add("phone", "Telefoonnummer is verplicht")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// BoatAnswers are the questionnaire answers. Empty strings and zero
// dimensions mean "not answered yet".
type BoatAnswers struct {
	CustomerType CustomerType `json:"customerType,omitempty"`
	BoatType     BoatType     `json:"boatType,omitempty"`
	LengthMeters float64      `json:"boatLength,omitempty"`
	WeightKg     float64      `json:"boatWeight,omitempty"`
	CurrentDrive DriveType    `json:"currentDrive,omitempty"`
	WaterType    WaterType    `json:"waterType,omitempty"`
	TripDuration TripDuration `json:"tripDuration,omitempty"`
}

// Validate rejects unknown categorical values. Unanswered fields pass.
func (a BoatAnswers) Validate(op string) error {
	verr := &ValidationError{Op: op}
	check := func(field, value string, valid bool) {
		if value != "" && !valid {
			verr.Add(field, "Ongeldige keuze")
		}
	}
	check("customerType", string(a.CustomerType), a.CustomerType.IsValid())
	check("boatType", string(a.BoatType), a.BoatType.IsValid())
	check("currentDrive", string(a.CurrentDrive), a.CurrentDrive.IsValid())
	check("waterType", string(a.WaterType), a.WaterType.IsValid())
	check("tripDuration", string(a.TripDuration), a.TripDuration.IsValid())
	if a.LengthMeters < 0 {
		verr.Add("boatLength", "Lengte kan niet negatief zijn")
	}
	if a.WeightKg < 0 {
		verr.Add("boatWeight", "Gewicht kan niet negatief zijn")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Parameters extracts the engine input from the answers.
func (a BoatAnswers) Parameters() BoatParameters {
	return BoatParameters{
		LengthMeters: a.LengthMeters,
		WeightKg:     a.WeightKg,
		TripDuration: a.TripDuration,
	}
}

// LeadPayload is what the wizard hands to a lead sink.
type LeadPayload struct {
	SubmissionID   uuid.UUID      `json:"submissionId"`
	Contact        ContactDetails `json:"contact"`
	Answers        BoatAnswers    `json:"answers"`
	Recommendation Recommendation `json:"recommendation"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	Source         string         `json:"source"`
}

// LeadStatus tracks delivery of a stored lead to downstream systems.
type LeadStatus string

const (
	LeadStatusReceived  LeadStatus = "received"
	LeadStatusForwarded LeadStatus = "forwarded"
	LeadStatusFailed    LeadStatus = "failed"
)

// IsValid returns true if the status is recognized.
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusReceived, LeadStatusForwarded, LeadStatusFailed:
		return true
	}
	return false
}

// Lead is a stored lead.
type Lead struct {
	ID           uuid.UUID
	SubmissionID uuid.UUID
	Contact      ContactDetails
	Answers      BoatAnswers

	RecommendedMotor        string
	RecommendedMotorPowerKw float64
	RecommendedBatteryKwh   float64
	RecommendedSpeedKmh     float64
	RecommendedHours        float64
	BatteryOptionsKwh       []float64

	Source      string
	Status      LeadStatus
	CRMPersonID *int64
	SheetKey    string
	SubmittedAt time.Time
	ForwardedAt *time.Time
	CreatedAt   time.Time
}

// IsForwarded reports whether the lead reached the CRM.
func (l *Lead) IsForwarded() bool {
	return l.Status == LeadStatusForwarded
}
