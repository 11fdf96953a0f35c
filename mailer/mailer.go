// Package mailer delivers verification codes to account email addresses.
//
// SMTPSender talks to a real relay; LogSender is the development
// fallback that prints the code to the process log so the flow stays
// usable with no SMTP configured.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"time"

	mail "github.com/go-mail/mail"
)

// Sender delivers a verification code to an address. Implementations
// must return an error whose message is safe to show to the user.
type Sender interface {
	Send(ctx context.Context, email, code, displayName string) error
}

// Config mirrors the SMTP_* environment surface.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool // STARTTLS
	UseSSL   bool // implicit TLS
	Timeout  time.Duration
	AppName  string
}

// NewSenderFromConfig returns an SMTPSender when a host is configured
// and the LogSender fallback otherwise.
func NewSenderFromConfig(cfg Config) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return &LogSender{AppName: cfg.AppName}
	}
	return NewSMTPSender(cfg)
}

func subjectFor(appName string) string {
	if appName == "" {
		appName = "App"
	}
	return appName + " verification code"
}

func bodyFor(code, displayName string) string {
	if displayName == "" {
		displayName = "there"
	}
	return fmt.Sprintf(
		"Hi %s,\n\nYour verification code is: %s\n\nThe code is valid for 15 minutes. If you did not request it, you can ignore this message.\n",
		displayName, code,
	)
}

// SMTPSender sends the verification message through go-mail.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender builds a sender from the SMTP config.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.From) == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}
}

// Send delivers the code. The context deadline caps the dial-and-send;
// the configured timeout applies underneath it.
func (s *SMTPSender) Send(ctx context.Context, email, code, displayName string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subjectFor(s.cfg.AppName))
	m.SetBody("text/plain", bodyFor(code, displayName))

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.cfg.Timeout
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}
	switch {
	case s.cfg.UseSSL:
		d.SSL = true
	case s.cfg.UseTLS:
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("SMTP error: %v", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("SMTP error: %v", ctx.Err())
	}
}

// LogSender writes the code to the process log instead of sending mail.
type LogSender struct {
	AppName string
}

// Send logs the code. It never fails.
func (s *LogSender) Send(_ context.Context, email, code, displayName string) error {
	_ = displayName
	log.Printf("mailer: [dev] verification code for %s: %s", email, code)
	return nil
}
