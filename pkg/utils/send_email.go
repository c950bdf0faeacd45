package utils

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

var ErrMailNotConfigured = errors.New("SMTP config not set")

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// DevMode logs messages instead of failing when SMTP is missing or broken.
	DevMode bool
}

type Mailer struct {
	cfg  MailConfig
	log  *logrus.Logger
	send func(*gomail.Message) error
}

func NewMailer(cfg MailConfig, log *logrus.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	m := &Mailer{cfg: cfg, log: log}
	if cfg.Host != "" && cfg.User != "" && cfg.Password != "" {
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
		m.send = func(msg *gomail.Message) error { return dialer.DialAndSend(msg) }
	}
	return m
}

// Send delivers a plain-text message.
func (m *Mailer) Send(to, subject, body string) error {
	if m.send == nil {
		if m.cfg.DevMode {
			m.logDev(to, subject, body, nil)
			return nil
		}
		return ErrMailNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.send(msg); err != nil {
		if m.cfg.DevMode {
			m.logDev(to, subject, body, err)
			return nil
		}
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *Mailer) logDev(to, subject, body string, cause error) {
	if m.log == nil {
		return
	}
	entry := m.log.WithFields(logrus.Fields{"to": to, "subject": subject, "body": body})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Info("dev email")
}
