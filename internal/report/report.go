// Package report renders lead summaries: the CRM note, the recommendation
// sheet PDF and the values shown in notification emails.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator renders a summary to w.
type Generator interface {
	// Generate writes the document and returns the number of bytes written.
	Generate(ctx context.Context, s *Summary, w io.Writer) (int64, error)

	// ContentType is the MIME type of the output.
	ContentType() string
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for generated documents.
var BrandColors = struct {
	Sea        string // Primary brand color
	Leaf       string // Accent
	TextDark   string
	TextMuted  string
	Border     string
	Background string
}{
	Sea:        "#0B3D5C",
	Leaf:       "#3BA55C",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E5E7EB",
	Background: "#F3F8F5",
}

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	return hexToDec(hex[0:2]), hexToDec(hex[2:4]), hexToDec(hex[4:6])
}

func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Summary
// =============================================================================

// Summary is everything needed to describe a lead to a human.
type Summary struct {
	LeadID         uuid.UUID
	Contact        domain.ContactDetails
	Answers        domain.BoatAnswers
	Recommendation domain.Recommendation
	SubmittedAt    time.Time
}

// NewSummary assembles a summary from a stored lead's parts.
func NewSummary(leadID uuid.UUID, payload domain.LeadPayload) *Summary {
	return &Summary{
		LeadID:         leadID,
		Contact:        payload.Contact,
		Answers:        payload.Answers,
		Recommendation: payload.Recommendation,
		SubmittedAt:    payload.SubmittedAt,
	}
}

// Row is a label/value pair.
type Row struct {
	Label string
	Value string
}

// BoatRows lists the questionnaire answers with display labels.
func (s *Summary) BoatRows() []Row {
	a := s.Answers
	return []Row{
		{"Klanttype", wizard.OptionLabel(wizard.StepCustomerType, string(a.CustomerType))},
		{"Boot", wizard.OptionLabel(wizard.StepBoatType, string(a.BoatType))},
		{"Lengte", FormatNumber(s.Recommendation.Input.LengthMeters, 1) + " m"},
		{"Gewicht", FormatNumber(s.Recommendation.Input.WeightKg, 0) + " kg"},
		{"Huidige motor", wizard.OptionLabel(wizard.StepCurrentDrive, string(a.CurrentDrive))},
		{"Vaargebied", wizard.OptionLabel(wizard.StepWaterType, string(a.WaterType))},
		{"Gemiddelde tocht", wizard.OptionLabel(wizard.StepTripDuration, string(a.TripDuration))},
	}
}

// AdviceRows lists the recommendation with display rounding.
func (s *Summary) AdviceRows() []Row {
	r := s.Recommendation
	return []Row{
		{"Motor", r.SelectedMotor.Name},
		{"Vermogen", FormatNumber(r.SelectedMotor.RatedPowerKw, -1) + " kW"},
		{"Batterij", FormatNumber(r.SelectedBatteryKwh, -1) + " kWh"},
		{"Vaartijd", FormatNumber(r.EstimatedCruisingHours, 1) + " uur"},
		{"Vaartijd volgas", FormatNumber(r.VolgasHours, 1) + " uur"},
		{"Kruissnelheid", FormatNumber(r.CruisingSpeedKmh, 1) + " km/h"},
		{"Max. rompsnelheid", FormatNumber(r.MaxHullSpeedKmh, 1) + " km/h"},
	}
}

// NoteContent renders the markdown note pinned to the CRM person.
func (s *Summary) NoteContent() string {
	var b strings.Builder
	b.WriteString("**Calculator Resultaten**\n\n")
	for _, row := range s.BoatRows() {
		fmt.Fprintf(&b, "**%s:** %s\n", row.Label, row.Value)
	}
	b.WriteString("\n**Aanbeveling:**\n")
	for _, row := range s.AdviceRows() {
		fmt.Fprintf(&b, "- %s: %s\n", row.Label, row.Value)
	}
	return strings.TrimSpace(b.String())
}
