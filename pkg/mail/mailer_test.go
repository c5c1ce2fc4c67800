package mail

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailerValidation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.local"})
	require.Error(t, err)

	mailer, err := NewSMTPMailer(SMTPSettings{})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: "a@example.com"})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestSendUsesConfiguredFrom(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte

	m := &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "mail.local",
			Port:    587,
			From:    "noreply@clinic.example",
		},
		sendFn: func(addr string, auth smtp.Auth, from string, to []string, body []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, body
			return nil
		},
	}

	err := m.Send(context.Background(), Message{
		To:      "patient@example.com",
		Subject: "Email verification",
		Body:    "<p>hello</p>",
	})
	require.NoError(t, err)
	require.Equal(t, "mail.local:587", gotAddr)
	require.Equal(t, "noreply@clinic.example", gotFrom)
	require.Equal(t, []string{"patient@example.com"}, gotTo)
	require.Contains(t, string(gotBody), "Content-Type: text/html")
	require.Contains(t, string(gotBody), "<p>hello</p>")
}

func TestSendRejectsBadAddresses(t *testing.T) {
	m := &smtpMailer{
		cfg: SMTPSettings{Enabled: true, Host: "mail.local", Port: 25, From: "noreply@clinic.example"},
		sendFn: func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send should not be reached")
			return nil
		},
	}

	err := m.Send(context.Background(), Message{To: "not-an-address"})
	require.Error(t, err)
}

func TestFormatMessageEscapesHeaders(t *testing.T) {
	payload := FormatMessage("a@x.io", "b@x.io", "line\r\nbreak", "body")
	require.Contains(t, payload, "Subject: line break")
}
