package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// =============================================================================
// Recommendation Sheet
// =============================================================================

// SheetGenerator renders a one-page recommendation sheet as PDF.
type SheetGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth float64
	margin    float64

	contentWidth float64
}

// NewSheetGenerator creates a sheet generator with A4 defaults.
func NewSheetGenerator() *SheetGenerator {
	margin := 18.0
	pageWidth := 210.0
	return &SheetGenerator{
		pageWidth:    pageWidth,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// ContentType returns application/pdf.
func (g *SheetGenerator) ContentType() string {
	return "application/pdf"
}

// Generate writes the sheet for s to w.
func (g *SheetGenerator) Generate(ctx context.Context, s *Summary, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Green Marine advies - "+s.Contact.FullName(), true)
	pdf.SetAuthor("Green Marine", true)
	pdf.SetCreator("Green Marine motorcalculator", true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, s)
	})

	pdf.AddPage()
	g.addHeader(pdf, tr, s)
	g.addHighlight(pdf, tr, s)
	g.addTable(pdf, tr, "Uw boot", s.BoatRows())
	g.addTable(pdf, tr, "Ons advies", s.AdviceRows())
	g.addContact(pdf, tr, s)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (g *SheetGenerator) addHeader(pdf *fpdf.Fpdf, tr func(string) string, s *Summary) {
	r, gr, b := HexToRGB(BrandColors.Sea)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 48, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(g.margin, 16)
	pdf.Cell(0, 10, tr("Uw elektrische aandrijving"))

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 30)
	pdf.Cell(0, 7, tr("Advies voor "+s.Contact.FullName()+" - "+FormatDate(s.SubmittedAt)))

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetY(60)
}

func (g *SheetGenerator) addHighlight(pdf *fpdf.Fpdf, tr func(string) string, s *Summary) {
	rec := s.Recommendation

	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	y := pdf.GetY()
	pdf.Rect(g.margin, y, g.contentWidth, 30, "F")

	r, gr, b = HexToRGB(BrandColors.Leaf)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(g.margin, y, 3, 30, "F")

	pdf.SetXY(g.margin+8, y+5)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 9, tr(rec.SelectedMotor.Name+" met "+FormatNumber(rec.SelectedBatteryKwh, -1)+" kWh"))

	pdf.SetXY(g.margin+8, y+17)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Circa %s uur varen op %s km/h",
		FormatNumber(rec.EstimatedCruisingHours, 1),
		FormatNumber(rec.CruisingSpeedKmh, 1),
	)))

	pdf.SetY(y + 40)
}

func (g *SheetGenerator) addTable(pdf *fpdf.Fpdf, tr func(string) string, title string, rows []Row) {
	g.addSectionHeader(pdf, tr(title))

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	labelWidth := 60.0

	for i, row := range rows {
		fill := i%2 == 0
		if fill {
			r, gr, b = HexToRGB(BrandColors.Background)
			pdf.SetFillColor(r, gr, b)
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelWidth, 8, tr(row.Label), "B", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(g.contentWidth-labelWidth, 8, tr(row.Value), "B", 1, "L", fill, 0, "")
	}
	pdf.Ln(8)
}

func (g *SheetGenerator) addContact(pdf *fpdf.Fpdf, tr func(string) string, s *Summary) {
	pdf.SetFont("Helvetica", "", 10)
	r, gr, b := HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.MultiCell(g.contentWidth, 5, tr(
		"Dit advies is een indicatie op basis van uw antwoorden. "+
			"Een adviseur neemt binnen 24 uur contact met u op via "+s.Contact.Email+
			" of "+s.Contact.Phone+" om het advies samen door te nemen."),
		"", "L", false)
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *SheetGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(BrandColors.Sea)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.SetLineWidth(0.2)
	pdf.Ln(3)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *SheetGenerator) addFooter(pdf *fpdf.Fpdf, s *Summary) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 10, "Green Marine - referentie "+s.LeadID.String())

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Pagina %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

var _ Generator = (*SheetGenerator)(nil)
