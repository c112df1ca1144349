package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// OfferExpiredEmail is the template data for an offer-expiration notice.
type OfferExpiredEmail struct {
	TrainerName string
	ClientEmail string
	Bundle      string
	ExpiresAt   string
}

// RefundEmail is the template data for a refund notice.
type RefundEmail struct {
	TrainerName  string
	ClientName   string
	PackageName  string
	RefundAmount string
	Currency     string
	RefundReason string
}

// Mailer sends trainer notifications. Callers treat sends as fire-and-forget;
// a failed send never affects the state transition that triggered it.
type Mailer interface {
	OfferExpired(to string, data OfferExpiredEmail) error
	RefundNotification(to string, data RefundEmail) error
}

// SMTPMailer sends plain-text mail over SMTP.
type SMTPMailer struct {
	addr string // host:port
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates a mailer for the given SMTP server. Auth is skipped
// when username is empty (e.g. a local relay).
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: host + ":" + port,
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) OfferExpired(to string, data OfferExpiredEmail) error {
	subject := "Your offer expired before checkout"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour offer to %s (%s) expired on %s without being purchased.\n"+
			"You can send a new offer from your dashboard.\n",
		data.TrainerName, data.ClientEmail, data.Bundle, data.ExpiresAt,
	)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) RefundNotification(to string, data RefundEmail) error {
	subject := "A payment was refunded"
	body := fmt.Sprintf(
		"Hi %s,\n\n%s %s was refunded to %s for %s.\nReason: %s.\n",
		data.TrainerName, data.RefundAmount, data.Currency,
		data.ClientName, data.PackageName, data.RefundReason,
	)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
