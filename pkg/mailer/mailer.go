package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender dispatches one email. A returned error is a soft transport
// fault: the caller routes the item to manual handling and continues.
type Sender interface {
	Send(to, from, subject, textBody, htmlBody string) error
}

// SMTPSender sends through the municipal SMTP relay. The relay accepts
// unauthenticated connections from the worker network.
type SMTPSender struct {
	host string
	port int
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(host string, port int) *SMTPSender {
	return &SMTPSender{host: host, port: port}
}

// Send delivers one message with a plain-text body and an HTML
// alternative.
func (s *SMTPSender) Send(to, from, subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := &gomail.Dialer{Host: s.host, Port: s.port}
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
