package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/report"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func newTestService(t *testing.T, cfg SMTPConfig, sendErr error) (*SMTPEmailService, *[]sentMail) {
	t.Helper()
	svc, err := NewSMTPEmailService(cfg, "https://calc.greenmarine.nl/", slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	var sent []sentMail
	svc.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr, a, from, to, msg})
		return sendErr
	}
	return svc, &sent
}

func testSummary() *report.Summary {
	return &report.Summary{
		LeadID: uuid.MustParse("6f1c2f7e-8a47-4f5b-9a77-3c1d1b0f4e21"),
		Contact: domain.ContactDetails{
			FirstName: "Jan",
			LastName:  "Jansen",
			Email:     "jan@example.nl",
			Phone:     "0612345678",
		},
		Answers: domain.BoatAnswers{
			CustomerType: domain.CustomerTypePrivate,
			BoatType:     domain.BoatTypeSloep,
			TripDuration: domain.TripDurationMedium,
		},
		Recommendation: domain.Recommendation{
			Input:                  domain.BoatParameters{LengthMeters: 6, WeightKg: 2000},
			CruisingSpeedKmh:       7.72,
			SelectedMotor:          domain.MotorCatalogEntry{Name: "GM 4kW", RatedPowerKw: 4},
			SelectedBatteryKwh:     10,
			EstimatedCruisingHours: 10,
		},
		SubmittedAt: time.Date(2030, time.May, 14, 9, 30, 0, 0, time.UTC),
	}
}

// parts returns the decoded subject and text/html bodies of a raw message.
func parts(t *testing.T, raw []byte) (subject string, bodies map[string]string) {
	t.Helper()
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err = new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	bodies = map[string]string{}
	mr := multipart.NewReader(m.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		ct, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		bodies[ct] = string(b)
	}
	return subject, bodies
}

func TestSendLeadNotification(t *testing.T) {
	svc, sent := newTestService(t, SMTPConfig{Host: "localhost", Port: 1025}, nil)

	err := svc.SendLeadNotification(context.Background(), "sales@greenmarine.nl", testSummary(), "https://files.test/sheets/x.pdf")
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	m := (*sent)[0]
	assert.Equal(t, "localhost:1025", m.addr)
	assert.Nil(t, m.auth)
	assert.Equal(t, DefaultFromEmail, m.from)
	assert.Equal(t, []string{"sales@greenmarine.nl"}, m.to)

	subject, bodies := parts(t, m.msg)
	assert.Equal(t, "Nieuwe lead: Jan Jansen (GM 4kW)", subject)
	assert.Contains(t, bodies["text/plain"], "**Calculator Resultaten**")
	assert.Contains(t, bodies["text/plain"], "Adviesblad: https://files.test/sheets/x.pdf")
	assert.Contains(t, bodies["text/html"], "mailto:jan@example.nl")
	assert.Contains(t, bodies["text/html"], "Particulier")
}

func TestSendCustomerConfirmation(t *testing.T) {
	svc, sent := newTestService(t, SMTPConfig{
		Host:     "smtp.test",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "advies@greenmarine.nl",
		FromName: "Green Marine Advies",
	}, nil)

	require.NoError(t, svc.SendCustomerConfirmation(context.Background(), testSummary(), ""))
	require.Len(t, *sent, 1)

	m := (*sent)[0]
	assert.NotNil(t, m.auth)
	assert.Equal(t, []string{"jan@example.nl"}, m.to)

	subject, bodies := parts(t, m.msg)
	assert.Equal(t, "Uw advies voor elektrisch varen", subject)
	assert.Contains(t, bodies["text/plain"], "Beste Jan,")
	assert.Contains(t, bodies["text/plain"], "GM 4kW met een batterij van 10 kWh")
	assert.Contains(t, bodies["text/plain"], "circa 10,0 uur varen op 7,7 km/h")
	assert.NotContains(t, bodies["text/plain"], "adviesblad")
	assert.Contains(t, bodies["text/html"], "Bedankt voor uw aanvraag!")
}

func TestSendFailure(t *testing.T) {
	svc, _ := newTestService(t, SMTPConfig{Host: "localhost", Port: 1025}, errors.New("connection refused"))

	err := svc.SendCustomerConfirmation(context.Background(), testSummary(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendCanceledContext(t *testing.T) {
	svc, sent := newTestService(t, SMTPConfig{Host: "localhost", Port: 1025}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendLeadNotification(ctx, "sales@greenmarine.nl", testSummary(), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}
