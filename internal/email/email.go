// Package email delivers the two messages of the lead flow: a notification
// to the sales inbox and a confirmation to the customer. SMTPEmailService
// talks to Mailhog locally and to an authenticated relay in production.
package email

import (
	"context"
	"net"
	"strconv"

	"github.com/DukeRupert/greenmarine/internal/report"
)

// EmailService is what the forward_lead job needs from email. sheetURL may
// be empty when the sheet could not be stored.
type EmailService interface {
	SendLeadNotification(ctx context.Context, to string, s *report.Summary, sheetURL string) error
	SendCustomerConfirmation(ctx context.Context, s *report.Summary, sheetURL string) error
}

const (
	TemplateLeadNotification     = "lead_notification"
	TemplateCustomerConfirmation = "customer_confirmation"
)

const (
	DefaultFromEmail = "noreply@greenmarine.nl"
	DefaultFromName  = "Green Marine"
)

// SMTPConfig addresses the relay. Username and Password stay empty for
// Mailhog, which does not authenticate.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// message is one rendered email with an HTML and a plain text part.
type message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}
