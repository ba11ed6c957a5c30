package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
	"time"

	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

const boundary = "===============GREENMARINE_BOUNDARY==============="

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP using the embedded html/template
// templates.
type SMTPEmailService struct {
	config    SMTPConfig
	baseURL   string
	templates *template.Template
	logger    *slog.Logger
	sendMail  sendFunc
}

// NewSMTPEmailService creates a new SMTP-based email service.
func NewSMTPEmailService(config SMTPConfig, baseURL string, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		logger:    logger,
		sendMail:  smtp.SendMail,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

type templateData struct {
	Summary  *report.Summary
	Boat     []report.Row
	Advice   []report.Row
	SheetURL string
	BaseURL  string
}

func (s *SMTPEmailService) data(sum *report.Summary, sheetURL string) templateData {
	return templateData{
		Summary:  sum,
		Boat:     sum.BoatRows(),
		Advice:   sum.AdviceRows(),
		SheetURL: sheetURL,
		BaseURL:  s.baseURL,
	}
}

// SendLeadNotification sends the new-lead email to the sales inbox.
func (s *SMTPEmailService) SendLeadNotification(ctx context.Context, to string, sum *report.Summary, sheetURL string) error {
	htmlBody, err := s.renderTemplate(TemplateLeadNotification+".html", s.data(sum, sheetURL))
	if err != nil {
		return fmt.Errorf("failed to render lead notification template: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Nieuwe aanvraag via de motorcalculator\n\n")
	fmt.Fprintf(&text, "Naam: %s\nE-mail: %s\nTelefoon: %s\nOntvangen: %s\n\n",
		sum.Contact.FullName(), sum.Contact.Email, sum.Contact.Phone, report.FormatDateTime(sum.SubmittedAt))
	text.WriteString(sum.NoteContent())
	if sheetURL != "" {
		fmt.Fprintf(&text, "\n\nAdviesblad: %s\n", sheetURL)
	}

	err = s.send(ctx, message{
		To:       to,
		Subject:  fmt.Sprintf("Nieuwe lead: %s (%s)", sum.Contact.FullName(), sum.Recommendation.SelectedMotor.Name),
		HTMLBody: htmlBody,
		TextBody: text.String(),
	})
	metrics.EmailSent(TemplateLeadNotification, err)
	return err
}

// SendCustomerConfirmation thanks the customer and repeats the advice.
func (s *SMTPEmailService) SendCustomerConfirmation(ctx context.Context, sum *report.Summary, sheetURL string) error {
	htmlBody, err := s.renderTemplate(TemplateCustomerConfirmation+".html", s.data(sum, sheetURL))
	if err != nil {
		return fmt.Errorf("failed to render confirmation template: %w", err)
	}

	rec := sum.Recommendation
	textBody := fmt.Sprintf(`Beste %s,

Bedankt voor uw aanvraag! We nemen binnen 24 uur contact met u op.

Ons advies op basis van uw antwoorden:
%s met een batterij van %s kWh, goed voor circa %s uur varen op %s km/h.

Met vriendelijke groet,
Green Marine
`,
		sum.Contact.FirstName,
		rec.SelectedMotor.Name,
		report.FormatNumber(rec.SelectedBatteryKwh, -1),
		report.FormatNumber(rec.EstimatedCruisingHours, 1),
		report.FormatNumber(rec.CruisingSpeedKmh, 1),
	)
	if sheetURL != "" {
		textBody += "\nUw adviesblad: " + sheetURL + "\n"
	}

	err = s.send(ctx, message{
		To:       sum.Contact.Email,
		Subject:  "Uw advies voor elektrisch varen",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	metrics.EmailSent(TemplateCustomerConfirmation, err)
	return err
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.buildMessage(email)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	addr := s.config.addr()

	// Create auth if credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

// buildMessage constructs the raw multipart message with headers.
func (s *SMTPEmailService) buildMessage(email message) ([]byte, error) {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject)))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", email.TextBody},
		{"text/html; charset=utf-8", email.HTMLBody},
	}
	for _, p := range parts {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", p.contentType))
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
		buf.WriteString("\r\n")

		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return buf.Bytes(), nil
}

func (s *SMTPEmailService) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"number":   report.FormatNumber,
		"dateTime": report.FormatDateTime,
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

var _ EmailService = (*SMTPEmailService)(nil)
