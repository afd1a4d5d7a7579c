// Package tools provides helpers shared by the server binaries.
package tools

import (
	"fmt"
	"net"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/anyswap/CrossChain-Settlement/log"
)

// Mailer smtp email sender
type Mailer struct {
	smtpServerURL string
	auth          smtp.Auth
	fromWithName  string
}

// NewMailer new mailer
func NewMailer(server string, port int, from, name, password string) *Mailer {
	m := &Mailer{
		smtpServerURL: net.JoinHostPort(server, fmt.Sprintf("%d", port)),
		auth:          smtp.PlainAuth("", from, password, server),
		fromWithName:  from,
	}
	if name != "" {
		m.fromWithName = fmt.Sprintf("%s <%s>", name, from)
	}
	return m
}

// SendEmail send email
func (m *Mailer) SendEmail(to, cc []string, subject, content string) error {
	return m.SendEmailWithAttach(to, cc, subject, content, nil)
}

// SendEmailWithAttach send email with attach
func (m *Mailer) SendEmailWithAttach(to, cc []string, subject, content string, attachFiles []string) error {
	e := m.NewEmail(to, cc, subject, content)
	for _, file := range attachFiles {
		_, err := e.AttachFile(file)
		if err != nil {
			log.Warn("attach file failed", "file", file, "err", err)
		}
	}
	return e.Send(m.smtpServerURL, m.auth)
}

// NewEmail build email without sending
func (m *Mailer) NewEmail(to, cc []string, subject, content string) *email.Email {
	e := email.NewEmail()
	e.From = m.fromWithName
	e.To = to
	e.Cc = cc
	e.Subject = subject
	e.Text = []byte(content)
	return e
}
